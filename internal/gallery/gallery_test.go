package gallery_test

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"gocloud.dev/blob"
	_ "gocloud.dev/blob/memblob"

	"go-rover-gallery/internal/gallery"
	"go-rover-gallery/internal/index"
	"go-rover-gallery/internal/model"
	"go-rover-gallery/internal/storage"
)

func memStore(t *testing.T) *storage.Store {
	t.Helper()
	b, err := blob.OpenBucket(context.Background(), "mem://")
	if err != nil {
		t.Fatalf("mem bucket: %v", err)
	}
	s := storage.New(b)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func render(t *testing.T, r *gallery.Renderer) *goquery.Document {
	t.Helper()
	var buf bytes.Buffer
	if err := r.Render(context.Background(), &buf); err != nil {
		t.Fatalf("render: %v", err)
	}
	if !strings.HasPrefix(buf.String(), "<html><body>") {
		t.Fatalf("unexpected document: %q", buf.String())
	}
	doc, err := goquery.NewDocumentFromReader(&buf)
	if err != nil {
		t.Fatalf("parse html: %v", err)
	}
	return doc
}

func TestRender_FilenameFallback(t *testing.T) {
	ctx := context.Background()
	st := memStore(t)
	_ = st.Write(ctx, "Rover.Curiosity.2020-01-01.Mast Camera.1.jpg", "image/jpeg", []byte("a"))
	_ = st.Write(ctx, "Rover.Spirit.2004-01-05.Panoramic Camera.2.jpg", "image/jpeg", []byte("b"))
	_ = st.Write(ctx, "readme.txt", "text/plain", []byte("c"))

	doc := render(t, gallery.New(st, nil, "/images/"))
	imgs := doc.Find("img")
	if imgs.Length() != 2 {
		t.Fatalf("img tags = %d, want 2", imgs.Length())
	}
	title, _ := imgs.First().Attr("title")
	if title != "Rover: Curiosity, EarthDate: 2020-01-01, Camera: Mast Camera " {
		t.Fatalf("title = %q", title)
	}
	src, _ := imgs.First().Attr("src")
	if src != "/images/Rover.Curiosity.2020-01-01.Mast%20Camera.1.jpg" {
		t.Fatalf("src = %q", src)
	}
}

func TestRender_IndexLabelsAvoidDelimiterAmbiguity(t *testing.T) {
	ctx := context.Background()
	st := memStore(t)
	idx, err := index.Open(filepath.Join(t.TempDir(), "idx.db"))
	if err != nil {
		t.Fatalf("index: %v", err)
	}
	defer idx.Close()

	p := model.PhotoRecord{ID: 9, EarthDate: "2020-01-01", Camera: model.Camera{FullName: "Cam v1.2"}, Rover: model.Rover{Name: "Curiosity"}}
	name := model.FileName(p)
	_ = st.Write(ctx, name, "image/jpeg", []byte("x"))
	_ = idx.Upsert(ctx, model.NewCachedImage(p, 1))

	r := gallery.New(st, idx, "/images/")
	imgs, err := r.Images(ctx)
	if err != nil || len(imgs) != 1 {
		t.Fatalf("images = %+v, %v", imgs, err)
	}
	if !imgs[0].Indexed || imgs[0].Camera != "Cam v1.2" {
		t.Fatalf("image = %+v", imgs[0])
	}
	title, _ := render(t, r).Find("img").Attr("title")
	if !strings.Contains(title, "Camera: Cam v1.2 ") {
		t.Fatalf("title = %q", title)
	}
}

func TestRender_EscapesLabels(t *testing.T) {
	ctx := context.Background()
	st := memStore(t)
	_ = st.Write(ctx, "Rover.<b>'x'.2020-01-01.Cam.1.jpg", "image/jpeg", []byte("x"))
	var buf bytes.Buffer
	if err := gallery.New(st, nil, "/images/").Render(ctx, &buf); err != nil {
		t.Fatalf("render: %v", err)
	}
	if strings.Contains(buf.String(), "<b>") {
		t.Fatalf("label not escaped: %q", buf.String())
	}
}

func TestRender_Empty(t *testing.T) {
	var buf bytes.Buffer
	if err := gallery.New(memStore(t), nil, "").Render(context.Background(), &buf); err != nil {
		t.Fatalf("render: %v", err)
	}
	if buf.String() != "<html><body></body></html>" {
		t.Fatalf("got %q", buf.String())
	}
}

type brokenLabels struct{}

func (brokenLabels) Lookup(context.Context) (map[string]model.CachedImage, error) {
	return nil, errors.New("db locked")
}

func TestRender_IndexFailureFallsBack(t *testing.T) {
	ctx := context.Background()
	st := memStore(t)
	_ = st.Write(ctx, "Rover.Opportunity.2010-03-01.Navigation Camera.5.jpg", "image/jpeg", []byte("x"))
	imgs, err := gallery.New(st, brokenLabels{}, "").Images(ctx)
	if err != nil || len(imgs) != 1 || imgs[0].Rover != "Opportunity" || imgs[0].Indexed {
		t.Fatalf("images = %+v, %v", imgs, err)
	}
}
