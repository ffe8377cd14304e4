package processor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"pdf2img/pkg/imgutil"
	"pdf2img/pkg/pdf2img"
)

// Run converts root, a PDF or a directory tree containing PDFs, with conv.
// Files that do not sniff as PDF are skipped. A failing document is counted
// and reported but does not stop the others.
func Run(ctx context.Context, root string, conv *pdf2img.Converter, opts Options, updates chan<- ProgressUpdate) (Summary, []DocumentReport, error) {
	summary := Summary{}
	var reports []DocumentReport

	if isRemote(root) {
		return runRemote(ctx, root, conv, opts, updates)
	}

	info, err := os.Stat(root)
	if err != nil {
		return summary, nil, err
	}

	absRoot, err := filepath.Abs(root)
	if err != nil {
		return summary, nil, err
	}

	var outputAbs string
	var outputInsideRoot bool
	if info.IsDir() && opts.OutputDir != "" {
		if absOut, outErr := filepath.Abs(opts.OutputDir); outErr == nil {
			outputAbs = absOut
			absRootClean := filepath.Clean(absRoot)
			outputClean := filepath.Clean(outputAbs)
			if outputClean != absRootClean && isWithin(outputClean, absRootClean) {
				outputInsideRoot = true
			}
		}
	}

	jobs := make(chan Job)
	results := make(chan Result)

	workers := opts.Workers
	if workers < 1 {
		workers = 1
	}
	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			worker(ctx, jobs, results, conv, opts, updates)
		}()
	}

	collectorDone := make(chan struct{})
	go func() {
		defer close(collectorDone)
		for res := range results {
			if !res.Supported {
				continue
			}
			summary.Documents++
			if res.Err != nil {
				summary.Errors++
				send(updates, ProgressUpdate{ErrorDelta: 1})
			} else {
				summary.Converted++
				summary.Pages += res.Pages
				summary.Bytes += res.Bytes
				send(updates, ProgressUpdate{ConvertedDelta: 1, BytesDelta: res.Bytes})
			}
			reports = append(reports, DocumentReport{
				Path:      res.Display,
				Pages:     res.Pages,
				Bytes:     res.Bytes,
				OutputDir: res.OutputDir,
				Err:       res.Err,
			})
		}
	}()

	producerErr := make(chan error, 1)
	go func() {
		defer close(jobs)

		sendJob := func(job Job) error {
			select {
			case jobs <- job:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		if !info.IsDir() {
			job := Job{
				Path:    absRoot,
				RelPath: "",
				Display: filepath.Base(absRoot),
			}
			producerErr <- sendJob(job)
			return
		}

		fsys := os.DirFS(absRoot)
		err := fs.WalkDir(fsys, ".", func(path string, d fs.DirEntry, walkErr error) error {
			if walkErr != nil {
				return walkErr
			}
			if d.IsDir() {
				if outputInsideRoot {
					fullDir := filepath.Join(absRoot, path)
					if isWithin(fullDir, outputAbs) {
						return fs.SkipDir
					}
				}
				return nil
			}
			if !d.Type().IsRegular() {
				return nil
			}

			return sendJob(Job{
				Path:    filepath.Join(absRoot, path),
				RelPath: path,
				Display: path,
			})
		})
		producerErr <- err
	}()

	wg.Wait()
	close(results)
	<-collectorDone

	if err := <-producerErr; err != nil {
		return summary, reports, err
	}
	if err := ctx.Err(); err != nil && !errors.Is(err, context.Canceled) {
		return summary, reports, err
	}

	return summary, reports, nil
}

// runRemote converts a single http(s) document into opts.OutputDir.
func runRemote(ctx context.Context, locator string, conv *pdf2img.Converter, opts Options, updates chan<- ProgressUpdate) (Summary, []DocumentReport, error) {
	job := Job{Path: locator, Display: locator}
	destDir := resolveDestination(job, opts)

	send(updates, ProgressUpdate{DocumentsDelta: 1})
	pages, written, err := convertFile(ctx, conv, job, destDir, opts, updates)

	summary := Summary{Documents: 1}
	report := DocumentReport{Path: locator, Pages: pages, Bytes: written, OutputDir: destDir, Err: err}
	if err != nil {
		summary.Errors = 1
		send(updates, ProgressUpdate{ErrorDelta: 1})
	} else {
		summary.Converted = 1
		summary.Pages = pages
		summary.Bytes = written
		send(updates, ProgressUpdate{ConvertedDelta: 1, BytesDelta: written})
	}
	return summary, []DocumentReport{report}, nil
}

func isRemote(root string) bool {
	return strings.HasPrefix(root, "http://") || strings.HasPrefix(root, "https://")
}

func worker(ctx context.Context, jobs <-chan Job, results chan<- Result, conv *pdf2img.Converter, opts Options, updates chan<- ProgressUpdate) {
	for job := range jobs {
		if err := ctx.Err(); err != nil {
			return
		}

		res := Result{Path: job.Path, RelPath: job.RelPath, Display: job.Display}

		kind, err := imgutil.SniffFile(job.Path)
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			continue
		}
		if err != nil {
			res.Supported = true
			res.Err = err
			results <- res
			continue
		}
		if kind != imgutil.KindPDF {
			continue
		}

		res.Supported = true
		send(updates, ProgressUpdate{DocumentsDelta: 1})

		res.OutputDir = resolveDestination(job, opts)
		res.Pages, res.Bytes, res.Err = convertFile(ctx, conv, job, res.OutputDir, opts, updates)
		results <- res
	}
}

func convertFile(ctx context.Context, conv *pdf2img.Converter, job Job, destDir string, opts Options, updates chan<- ProgressUpdate) (int, int64, error) {
	convOpts := opts.Convert
	callerProgress := convOpts.OnProgress
	done, sized := 0, false
	convOpts.OnProgress = func(p pdf2img.BatchProgress) {
		if !sized {
			sized = true
			send(updates, ProgressUpdate{PagesTotalDelta: p.Total})
		}
		send(updates, ProgressUpdate{PagesDoneDelta: p.Completed - done})
		done = p.Completed
		if callerProgress != nil {
			callerProgress(p)
		}
	}
	if convOpts.Logger != nil {
		convOpts.Logger = convOpts.Logger.With("document", job.Display)
	}

	outputs, err := conv.Convert(ctx, pdf2img.FromLocator(job.Path), convOpts)
	if err != nil {
		return 0, 0, fmt.Errorf("%s: %w", job.Display, err)
	}

	written, err := writeOutputs(outputs, destDir, convOpts.Format)
	if err != nil {
		return 0, 0, fmt.Errorf("%s: %w", job.Display, err)
	}
	return len(outputs), written, nil
}

// writeOutputs stores each page atomically as page-NNN.<ext>, or .txt for
// base64 and data URL outputs.
func writeOutputs(outputs []pdf2img.PageOutput, destDir string, format pdf2img.Format) (int64, error) {
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return 0, err
	}

	var written int64
	for _, out := range outputs {
		name, data, err := pageFile(out, format)
		if err != nil {
			return written, fmt.Errorf("page %d: %w", out.Page, err)
		}

		tmp, err := os.CreateTemp(destDir, ".pdf2img-*")
		if err != nil {
			return written, err
		}
		tmpPath := tmp.Name()
		if _, err := tmp.Write(data); err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmpPath)
			return written, err
		}
		if err := tmp.Close(); err != nil {
			_ = os.Remove(tmpPath)
			return written, err
		}
		if err := replaceFile(tmpPath, filepath.Join(destDir, name)); err != nil {
			_ = os.Remove(tmpPath)
			return written, err
		}
		written += int64(len(data))
	}
	return written, nil
}

func pageFile(out pdf2img.PageOutput, format pdf2img.Format) (string, []byte, error) {
	if out.IsText() {
		return fmt.Sprintf("page-%03d.txt", out.Page), []byte(out.Text), nil
	}
	data, err := out.Bytes()
	if err != nil {
		return "", nil, err
	}
	return fmt.Sprintf("page-%03d.%s", out.Page, format.Extension()), data, nil
}

// resolveDestination maps a document to its output folder. A directory walk
// mirrors the tree with one folder per document, named after the file.
func resolveDestination(job Job, opts Options) string {
	outputDir := opts.OutputDir
	if outputDir == "" {
		outputDir = "."
	}
	if job.RelPath == "" {
		return outputDir
	}
	rel := strings.TrimSuffix(job.RelPath, filepath.Ext(job.RelPath))
	return filepath.Join(outputDir, filepath.FromSlash(rel))
}

func send(updates chan<- ProgressUpdate, update ProgressUpdate) {
	if updates != nil {
		updates <- update
	}
}

func replaceFile(tmpPath, destPath string) error {
	if err := os.Rename(tmpPath, destPath); err == nil {
		return nil
	}
	if err := os.Remove(destPath); err != nil && !os.IsNotExist(err) {
		return err
	}
	return os.Rename(tmpPath, destPath)
}

func isWithin(path string, root string) bool {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}
	if rel == "." {
		return true
	}
	if strings.HasPrefix(rel, "..") {
		return false
	}
	return true
}
