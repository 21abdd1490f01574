// Package importer 把一个目录中的图片批量导入到相册。
// 每个文件都走与网页上传相同的流程：检测元数据，再通过 catalog 创建照片记录。
package importer

import (
	"PhotoAlbum/internal/models"
	"PhotoAlbum/pkg/catalog"
	"PhotoAlbum/pkg/database"
	"PhotoAlbum/pkg/imageinfo"
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync"
)

// Uploader 是 importer 需要的 catalog 能力。
type Uploader interface {
	GetAlbum(ctx context.Context, id int64) (*models.Album, error)
	UploadPhoto(ctx context.Context, in catalog.NewPhoto) (*models.Photo, error)
}

type Options struct {
	AlbumID     int64
	OwnerID     int64
	Visibility  models.Visibility
	Tags        []string
	ThumbWidth  int
	ThumbHeight int
}

// Failure 记录一个没有导入的文件及原因。
type Failure struct {
	File   string `json:"file" yaml:"file"`
	Reason string `json:"reason" yaml:"reason"`
}

type Report struct {
	Imported []int64   `json:"imported" yaml:"imported"`
	Failed   []Failure `json:"failed" yaml:"failed"`
}

type Importer struct {
	uploader   Uploader
	numWorkers int
	logger     *slog.Logger
}

func New(uploader Uploader, workerCount int, logger *slog.Logger) *Importer {
	if workerCount <= 0 {
		workerCount = runtime.NumCPU()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Importer{uploader: uploader, numWorkers: workerCount, logger: logger}
}

type importJob struct {
	filePath string
}

type importResult struct {
	photoID int64
	failure *Failure
}

// ImportDir 导入 dir 下（不递归）的所有文件。单个文件失败只记入报告；
// 没有所有者、相册不存在或 ctx 被取消时返回错误。
func (im *Importer) ImportDir(ctx context.Context, dir string, opts Options) (*Report, error) {
	if opts.OwnerID <= 0 {
		return nil, fmt.Errorf("%w: 导入的照片必须有所有者", database.ErrInvalidInput)
	}
	if _, err := im.uploader.GetAlbum(ctx, opts.AlbumID); err != nil {
		return nil, fmt.Errorf("相册 %d: %w", opts.AlbumID, err)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("无法读取目录 %s: %w", dir, err)
	}

	var wg sync.WaitGroup
	jobs := make(chan importJob, im.numWorkers)
	results := make(chan importResult, im.numWorkers)

	for i := 0; i < im.numWorkers; i++ {
		wg.Add(1)
		go im.worker(ctx, &wg, opts, jobs, results)
	}

	go func() {
		defer close(jobs)
		for _, e := range entries {
			if e.IsDir() || strings.HasPrefix(e.Name(), ".") {
				continue
			}
			select {
			case jobs <- importJob{filePath: filepath.Join(dir, e.Name())}:
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	report := &Report{Imported: []int64{}, Failed: []Failure{}}
	for res := range results {
		if res.failure != nil {
			report.Failed = append(report.Failed, *res.failure)
			continue
		}
		report.Imported = append(report.Imported, res.photoID)
	}
	if err := ctx.Err(); err != nil {
		return report, err
	}

	sort.Slice(report.Imported, func(i, j int) bool { return report.Imported[i] < report.Imported[j] })
	sort.Slice(report.Failed, func(i, j int) bool { return report.Failed[i].File < report.Failed[j].File })
	im.logger.Info("目录导入完成", "dir", dir, "albumId", opts.AlbumID, "imported", len(report.Imported), "failed", len(report.Failed))
	return report, nil
}

// worker 是处理单个文件的工人
func (im *Importer) worker(ctx context.Context, wg *sync.WaitGroup, opts Options, jobs <-chan importJob, results chan<- importResult) {
	defer wg.Done()
	for job := range jobs {
		id, err := im.importFile(ctx, job.filePath, opts)
		if err != nil {
			im.logger.Warn("跳过文件", "file", job.filePath, "error", err)
			results <- importResult{failure: &Failure{File: filepath.Base(job.filePath), Reason: err.Error()}}
			continue
		}
		results <- importResult{photoID: id}
	}
}

func (im *Importer) importFile(ctx context.Context, path string, opts Options) (int64, error) {
	stat, err := os.Stat(path)
	if err != nil {
		return 0, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	info, err := imageinfo.Inspect(bytes.NewReader(data), opts.ThumbWidth, opts.ThumbHeight)
	if err != nil {
		return 0, err
	}

	name := filepath.Base(path)
	photo, err := im.uploader.UploadPhoto(ctx, catalog.NewPhoto{
		AlbumID:        opts.AlbumID,
		OwnerID:        opts.OwnerID,
		Filename:       name,
		Title:          strings.TrimSuffix(name, filepath.Ext(name)),
		Visibility:     opts.Visibility,
		Tags:           opts.Tags,
		Date:           stat.ModTime().UTC(),
		Resolution:     info.Resolution,
		Thumbnail:      info.Thumbnail,
		PerceptualHash: info.PerceptualHash,
	})
	if err != nil {
		return 0, err
	}
	return photo.ID, nil
}
