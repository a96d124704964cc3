// Package export prints rendered resume pages to PDF with headless Chrome.
package export

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
)

// DefaultTimeout bounds one export, browser start-up included
const DefaultTimeout = 30 * time.Second

// US letter, in inches
const (
	paperWidth  = 8.5
	paperHeight = 11.0
	pageMargin  = 0.4
)

// Printer turns a page URL into PDF bytes
type Printer func(ctx context.Context, pageURL string, timeout time.Duration) ([]byte, error)

// PDF renders pageURL in a headless browser and prints it with background graphics.
// Requires Chrome/Chromium to be installed on the system.
func PDF(ctx context.Context, pageURL string, timeout time.Duration) ([]byte, error) {
	if err := checkURL(pageURL); err != nil {
		return nil, err
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	allocCtx, cancel := chromedp.NewExecAllocator(ctx,
		append(chromedp.DefaultExecAllocatorOptions[:],
			chromedp.Flag("headless", true),
			chromedp.Flag("disable-gpu", true),
			chromedp.Flag("no-sandbox", true),
			chromedp.Flag("disable-dev-shm-usage", true),
		)...,
	)
	defer cancel()

	browserCtx, cancel := chromedp.NewContext(allocCtx)
	defer cancel()

	browserCtx, cancel = context.WithTimeout(browserCtx, timeout)
	defer cancel()

	var pdf []byte
	err := chromedp.Run(browserCtx,
		chromedp.Navigate(pageURL),
		chromedp.WaitReady("#name", chromedp.ByQuery),
		// the chat panel is interactive only; hide it from print
		chromedp.Evaluate(`document.getElementById("chat")?.remove()`, nil),
		chromedp.ActionFunc(func(ctx context.Context) error {
			data, _, err := page.PrintToPDF().
				WithPrintBackground(true).
				WithPaperWidth(paperWidth).
				WithPaperHeight(paperHeight).
				WithMarginTop(pageMargin).
				WithMarginBottom(pageMargin).
				WithMarginLeft(pageMargin).
				WithMarginRight(pageMargin).
				Do(ctx)
			if err != nil {
				return err
			}
			pdf = data
			return nil
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("browser rendering failed: %w", err)
	}
	if !bytes.HasPrefix(pdf, []byte("%PDF-")) {
		return nil, fmt.Errorf("browser returned %d bytes that are not a PDF", len(pdf))
	}
	return pdf, nil
}

// PDFFromHandler serves h on an ephemeral loopback port for the duration of one print and
// prints the page at path. A nil printer means PDF.
func PDFFromHandler(ctx context.Context, h http.Handler, path string, timeout time.Duration, printer Printer) ([]byte, error) {
	if printer == nil {
		printer = PDF
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return nil, fmt.Errorf("failed to listen on loopback: %w", err)
	}

	srv := &http.Server{Handler: h, ReadHeaderTimeout: 10 * time.Second}
	serveErr := make(chan error, 1)
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	pdf, printErr := printer(ctx, "http://"+ln.Addr().String()+path, timeout)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)

	if err := <-serveErr; err != nil {
		return nil, fmt.Errorf("export server failed: %w", err)
	}
	if printErr != nil {
		return nil, printErr
	}
	return pdf, nil
}

func checkURL(pageURL string) error {
	u, err := url.Parse(pageURL)
	if err != nil {
		return fmt.Errorf("invalid page URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("page URL must be http or https, got %q", pageURL)
	}
	if u.Host == "" {
		return fmt.Errorf("page URL has no host: %q", pageURL)
	}
	return nil
}
