package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

type fakeUploader struct {
	url     string
	err     error
	prefix  string
	uploads int
}

func (f *fakeUploader) UploadDataURI(_ context.Context, _ string, prefix string) (string, error) {
	f.uploads++
	f.prefix = prefix
	return f.url, f.err
}

func TestImageServiceStore(t *testing.T) {
	ctx := context.Background()

	up := &fakeUploader{url: "https://cdn.example.com/meal-photos/u1-1.jpg"}
	svc := NewImageService(up)
	assert.Equal(t, up.url, svc.Store(ctx, "u1", jpegURI))
	assert.Equal(t, "meal-photos/u1", up.prefix)

	assert.Equal(t, "https://example.com/a.png", svc.Store(ctx, "u1", "https://example.com/a.png"))
	assert.Equal(t, 1, up.uploads, "remote URLs are kept as they are")

	failing := NewImageService(&fakeUploader{err: errors.New("access denied")})
	assert.Equal(t, jpegURI, failing.Store(ctx, "u1", jpegURI))

	var none *ImageService
	assert.Equal(t, jpegURI, none.Store(ctx, "u1", jpegURI))
	assert.Equal(t, jpegURI, NewImageService(nil).Store(ctx, "u1", jpegURI))
}

func TestMealCreateUploadsPhoto(t *testing.T) {
	db := newTestDB(t)
	uid := createUser(t, db, "alice").ID
	up := &fakeUploader{url: "https://cdn.example.com/p.jpg"}
	svc := NewMealService(db, NewImageService(up), nil)

	in := breakfast("2024-06-12")
	in.ImageURL = &jpegURI
	log, err := svc.Create(context.Background(), uid, in)
	if assert.NoError(t, err) && assert.NotNil(t, log.ImageURL) {
		assert.Equal(t, "https://cdn.example.com/p.jpg", *log.ImageURL)
	}
}
