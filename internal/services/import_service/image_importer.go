package services

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/tricode/magnolia-blog/internal/domain/models"
	"github.com/tricode/magnolia-blog/internal/lib/logger/sl"
	"github.com/tricode/magnolia-blog/internal/lib/nodename"

	"github.com/PuerkitoBio/goquery"
	"github.com/gabriel-vasile/mimetype"
)

// ImageImporter pulls media referenced from imported post HTML into the
// asset store and rewrites the references to the stored copies. Only URLs
// under the site's media path that actually serve an image are taken; other
// links pass through untouched.
type ImageImporter struct {
	log    *slog.Logger
	client *http.Client
	marker string
}

func NewImageImporter(log *slog.Logger, client *http.Client, marker string) *ImageImporter {
	if marker == "" {
		marker = "wp-content"
	}
	return &ImageImporter{log: log, client: client, marker: marker}
}

// Rewrite scans the fragment's links and inline images. Each media URL is
// fetched once per run; repeated references reuse the stored asset. Returns
// the rewritten fragment and the number of assets created.
func (i *ImageImporter) Rewrite(ctx context.Context, run *importRun, fragment string) (string, int, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return "", 0, err
	}

	imported := 0
	var firstErr error

	rewrite := func(sel *goquery.Selection, attr string) {
		if firstErr != nil {
			return
		}
		raw, _ := sel.Attr(attr)
		if link, ok := run.processedURLs[raw]; ok {
			sel.SetAttr(attr, link)
			return
		}
		link, ok, err := i.importImage(ctx, run, raw)
		if err != nil {
			firstErr = err
			return
		}
		if !ok {
			return
		}
		run.processedURLs[raw] = link
		sel.SetAttr(attr, link)
		imported++
	}

	doc.Find("a[href]").Each(func(_ int, sel *goquery.Selection) {
		rewrite(sel, "href")
	})
	doc.Find("img[src]").Each(func(_ int, sel *goquery.Selection) {
		rewrite(sel, "src")
	})

	if firstErr != nil {
		return "", 0, firstErr
	}

	out, err := doc.Find("body").Html()
	if err != nil {
		return "", 0, err
	}

	return out, imported, nil
}

// importImage decides whether the URL is importable media, and if so stores
// it as an asset. URLs outside the media path and non-image content are
// skipped; transport failures while talking to the remote site propagate and
// fail the run.
func (i *ImageImporter) importImage(ctx context.Context, run *importRun, raw string) (string, bool, error) {
	const op = "import_service.ImageImporter.importImage"

	u, err := url.Parse(raw)
	if err != nil || !strings.Contains(u.Path, i.marker) {
		return "", false, nil
	}

	log := i.log.With(slog.String("url", raw))

	contentType, err := i.head(ctx, raw)
	if err != nil {
		return "", false, fmt.Errorf("%s: %w", op, err)
	}
	if !strings.HasPrefix(contentType, "image/") {
		return "", false, nil
	}

	data, err := i.fetch(ctx, raw)
	if err != nil {
		return "", false, fmt.Errorf("%s: %w", op, err)
	}

	mt := mimetype.Detect(data)

	width, height := 0, 0
	if cfg, _, err := image.DecodeConfig(bytes.NewReader(data)); err == nil {
		width, height = cfg.Width, cfg.Height
	} else {
		log.Warn("image dimensions unreadable", sl.Err(err))
	}

	assets, err := run.assetRepo(ctx)
	if err != nil {
		return "", false, err
	}

	fileName := path.Base(u.Path)
	base := nodename.Validated(strings.TrimSuffix(fileName, path.Ext(fileName)))
	if base == "" {
		base = "image"
	}
	name, err := nodename.Unique(ctx, base, assets.NameExists)
	if err != nil {
		return "", false, err
	}

	asset := models.Asset{
		Name:      name,
		Extension: strings.TrimPrefix(mt.Extension(), "."),
		FileName:  fileName,
		Size:      int64(len(data)),
		Width:     width,
		Height:    height,
		MimeType:  mt.String(),
		Data:      data,
		CreatedAt: time.Now().UTC(),
	}
	if _, err := assets.Create(ctx, asset); err != nil {
		return "", false, err
	}

	return asset.Link(), true, nil
}

// head asks the remote site for the URL's content type so non-image media
// can be skipped without downloading it.
func (i *ImageImporter) head(ctx context.Context, raw string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, raw, nil)
	if err != nil {
		return "", err
	}

	resp, err := i.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("head %s: unexpected status %d", raw, resp.StatusCode)
	}

	return resp.Header.Get("Content-Type"), nil
}

func (i *ImageImporter) fetch(ctx context.Context, raw string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, raw, nil)
	if err != nil {
		return nil, err
	}

	resp, err := i.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch %s: unexpected status %d", raw, resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", raw, err)
	}

	return data, nil
}
