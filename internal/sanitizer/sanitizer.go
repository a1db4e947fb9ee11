// Package sanitizer inlines every remote <img> of a rendered document as a
// PNG data URI so the rasterizer never has to fetch cross-origin resources.
package sanitizer

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"image/color"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/disintegration/imaging"
	"golang.org/x/sync/errgroup"

	// Decoders beyond the png/jpeg/gif set registered by imaging.
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"

	"github.com/joshsymonds/jobsheet/pkg/logger"
)

const (
	dataURIPrefix    = "data:"
	pngDataURIPrefix = "data:image/png;base64,"
	failedAltSuffix  = " (image failed to load)"

	// ErrorAttr is set on images that fell back to the placeholder.
	ErrorAttr = "data-sanitize-error"
)

// Placeholder is the 1x1 transparent PNG substituted for failed images.
var Placeholder = mustPlaceholder()

// Options configures a Sanitizer.
type Options struct {
	Client         *http.Client
	BaseURL        *url.URL
	UserAgent      string
	Timeout        time.Duration
	MaxConcurrency int
	MaxBytes       int64
}

// Stats summarizes one Sanitize call.
type Stats struct {
	Total     int
	Converted int
	Failed    int
	Skipped   int
}

// Sanitizer rewrites image sources to inline data URIs.
type Sanitizer struct {
	client *http.Client
	logger logger.Logger
	opts   Options
}

// New creates a Sanitizer. Zero-valued options fall back to defaults.
func New(opts Options, log logger.Logger) *Sanitizer {
	if opts.Client == nil {
		opts.Client = &http.Client{}
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 15 * time.Second
	}
	if opts.MaxConcurrency <= 0 {
		opts.MaxConcurrency = 8
	}
	if opts.MaxBytes <= 0 {
		opts.MaxBytes = 10 << 20
	}
	if log == nil {
		log = logger.GetGlobalLogger()
	}
	return &Sanitizer{client: opts.Client, opts: opts, logger: log}
}

type job struct {
	sel *goquery.Selection
	src string
}

type outcome struct {
	err     error
	dataURI string
}

// Sanitize returns html with every non-data <img> source replaced by an
// inline PNG. Images that cannot be converted get the transparent
// placeholder and a marked alt text. Only a malformed document or a
// cancelled context is reported as an error.
func (s *Sanitizer) Sanitize(ctx context.Context, html string) (string, Stats, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", Stats{}, fmt.Errorf("parsing document: %w", err)
	}

	var stats Stats
	var jobs []job
	doc.Find("img").Each(func(_ int, sel *goquery.Selection) {
		stats.Total++
		src, _ := sel.Attr("src")
		src = strings.TrimSpace(src)
		if strings.HasPrefix(strings.ToLower(src), dataURIPrefix) {
			stats.Skipped++
			return
		}
		jobs = append(jobs, job{sel: sel, src: src})
	})

	if len(jobs) == 0 {
		return html, stats, nil
	}

	outcomes := make([]outcome, len(jobs))

	var g errgroup.Group
	g.SetLimit(s.opts.MaxConcurrency)
	for i, j := range jobs {
		g.Go(func() error {
			uri, err := s.convert(ctx, j.src)
			outcomes[i] = outcome{dataURI: uri, err: err}
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return "", stats, fmt.Errorf("sanitizing images: %w", err)
	}

	for i, j := range jobs {
		o := outcomes[i]
		if o.err == nil {
			j.sel.SetAttr("src", o.dataURI)
			stats.Converted++
			continue
		}

		stats.Failed++
		s.logger.Warn("Image conversion failed, using placeholder",
			"url", j.src,
			"reason", string(FailureOf(o.err)),
			"error", o.err)

		alt, _ := j.sel.Attr("alt")
		j.sel.SetAttr("src", Placeholder)
		j.sel.SetAttr("alt", alt+failedAltSuffix)
		j.sel.SetAttr(ErrorAttr, string(FailureOf(o.err)))
	}

	s.logger.Debug("Sanitized images",
		"total", stats.Total,
		"converted", stats.Converted,
		"failed", stats.Failed,
		"skipped", stats.Skipped)

	out, err := doc.Html()
	if err != nil {
		return "", stats, fmt.Errorf("rendering document: %w", err)
	}
	return out, stats, nil
}

// convert fetches src once and re-encodes it as a PNG composited on white.
func (s *Sanitizer) convert(ctx context.Context, src string) (string, error) {
	target, err := s.resolve(src)
	if err != nil {
		return "", newImageError(src, FailureURL, err)
	}

	ctx, cancel := context.WithTimeout(ctx, s.opts.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return "", newImageError(src, FailureURL, err)
	}
	if s.opts.UserAgent != "" {
		req.Header.Set("User-Agent", s.opts.UserAgent)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return "", newImageError(src, FailureTimeout, err)
		}
		return "", newImageError(src, FailureFetch, err)
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			s.logger.Debug("Closing image response body", "url", src, "error", cerr)
		}
	}()

	if resp.StatusCode != http.StatusOK {
		return "", newImageError(src, FailureStatus, fmt.Errorf("unexpected status %d", resp.StatusCode))
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, s.opts.MaxBytes+1))
	if err != nil {
		return "", newImageError(src, FailureFetch, err)
	}
	if int64(len(data)) > s.opts.MaxBytes {
		return "", newImageError(src, FailureSize, fmt.Errorf("image exceeds %d bytes", s.opts.MaxBytes))
	}

	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return "", newImageError(src, FailureDecode, err)
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, FlattenOnWhite(img), imaging.PNG); err != nil {
		return "", newImageError(src, FailureEncode, err)
	}

	return pngDataURIPrefix + base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

func (s *Sanitizer) resolve(src string) (string, error) {
	if src == "" {
		return "", errors.New("empty source")
	}

	u, err := url.Parse(src)
	if err != nil {
		return "", err
	}
	if !u.IsAbs() {
		switch {
		case s.opts.BaseURL != nil:
			u = s.opts.BaseURL.ResolveReference(u)
		case strings.HasPrefix(src, "//"):
			u.Scheme = "https"
		default:
			return "", fmt.Errorf("relative URL %q without base", src)
		}
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	return u.String(), nil
}

// FlattenOnWhite composites img over an opaque white background.
func FlattenOnWhite(img image.Image) *image.NRGBA {
	b := img.Bounds()
	bg := imaging.New(b.Dx(), b.Dy(), color.White)
	return imaging.Overlay(bg, img, image.Pt(0, 0), 1.0)
}

func mustPlaceholder() string {
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, imaging.New(1, 1, color.Transparent), imaging.PNG); err != nil {
		panic("sanitizer: encoding placeholder: " + err.Error())
	}
	return pngDataURIPrefix + base64.StdEncoding.EncodeToString(buf.Bytes())
}
