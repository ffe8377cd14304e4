package cmd

import (
	"fmt"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"pdf2img/internal/inspect"
	"pdf2img/internal/tui"
)

var (
	inspectPassword string
	inspectScale    float64
)

var inspectCmd = &cobra.Command{
	Use:   "inspect <file>",
	Short: "Report page count and page sizes without rendering",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := args[0]
		report, err := inspect.File(path, inspectPassword)
		if err != nil {
			return err
		}

		fmt.Fprintf(os.Stdout, "%s\n", inspectFileStyle.Render(path))
		fmt.Fprintf(os.Stdout, "  %s %s\n", inspectCategoryStyle.Render("PDF version:"), inspectValueStyle.Render(report.Version))
		fmt.Fprintf(os.Stdout, "  %s %s\n", inspectCategoryStyle.Render("Pages:"), inspectValueStyle.Render(fmt.Sprintf("%d", report.Pages)))
		if len(report.Sizes) == 0 {
			fmt.Fprintf(os.Stdout, "  %s %s\n", inspectBulletStyle.Render("-"), inspectDimStyle.Render("none"))
			return nil
		}

		fmt.Fprintf(os.Stdout, "  %s\n", inspectCategoryStyle.Render(fmt.Sprintf("Sizes at scale %g:", inspectScale)))
		for _, size := range report.Sizes {
			vp := size.Viewport(inspectScale)
			fmt.Fprintf(os.Stdout, "    %s %s %s\n",
				inspectBulletStyle.Render("-"),
				inspectValueStyle.Render(fmt.Sprintf("page %d: %dx%d px", size.Page, vp.Width, vp.Height)),
				inspectDimStyle.Render(fmt.Sprintf("(%gx%g pt)", size.WidthPt, size.HeightPt)),
			)
		}
		return nil
	},
}

var (
	inspectFileStyle     = lipgloss.NewStyle().Bold(true).Foreground(tui.ColorAccent)
	inspectCategoryStyle = lipgloss.NewStyle().Foreground(tui.ColorAccentAlt)
	inspectValueStyle    = lipgloss.NewStyle().Foreground(tui.ColorInk)
	inspectDimStyle      = lipgloss.NewStyle().Foreground(tui.ColorDim)
	inspectBulletStyle   = lipgloss.NewStyle().Foreground(tui.ColorDim)
)

func init() {
	inspectCmd.Flags().StringVar(&inspectPassword, "password", "", "password for encrypted documents")
	inspectCmd.Flags().Float64VarP(&inspectScale, "scale", "s", cfg.Scale, "scale used to report pixel sizes")

	rootCmd.AddCommand(inspectCmd)
}
