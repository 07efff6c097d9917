package publish

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeUploader struct {
	objects map[string]string
	types   map[string]string
	failOn  string
}

func (f *fakeUploader) PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	key := aws.ToString(params.Key)
	if key == f.failOn {
		return nil, errors.New("access denied")
	}
	body, err := io.ReadAll(params.Body)
	if err != nil {
		return nil, err
	}
	f.objects[aws.ToString(params.Bucket)+"/"+key] = string(body)
	f.types[key] = aws.ToString(params.ContentType)
	return &s3.PutObjectOutput{}, nil
}

func newFake() *fakeUploader {
	return &fakeUploader{objects: map[string]string{}, types: map[string]string{}}
}

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func TestPublish(t *testing.T) {
	dir := t.TempDir()
	report := filepath.Join(dir, "inventory_report_20260314_092653.md")
	export := filepath.Join(dir, "scraped_products_20260314_092653.json")
	require.NoError(t, os.WriteFile(report, []byte("# Inventory Scrape Report"), 0644))
	require.NoError(t, os.WriteFile(export, []byte(`{"count": 0}`), 0644))

	fake := newFake()
	p := NewWithClient(fake, "catalog", "syncs", testLogger())

	keys, err := p.Publish(context.Background(), "run-1", report, "", export)

	require.NoError(t, err)
	assert.Equal(t, []string{
		"syncs/run-1/inventory_report_20260314_092653.md",
		"syncs/run-1/scraped_products_20260314_092653.json",
	}, keys)
	assert.Equal(t, "# Inventory Scrape Report", fake.objects["catalog/syncs/run-1/inventory_report_20260314_092653.md"])
	assert.Equal(t, "application/json", fake.types["syncs/run-1/scraped_products_20260314_092653.json"])
}

func TestPublish_StopsOnFailure(t *testing.T) {
	dir := t.TempDir()
	first := filepath.Join(dir, "a.json")
	second := filepath.Join(dir, "b.json")
	require.NoError(t, os.WriteFile(first, []byte("{}"), 0644))
	require.NoError(t, os.WriteFile(second, []byte("{}"), 0644))

	fake := newFake()
	fake.failOn = "run-1/a.json"
	p := NewWithClient(fake, "catalog", "", testLogger())

	keys, err := p.Publish(context.Background(), "run-1", first, second)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "access denied")
	assert.Empty(t, keys)
	assert.Empty(t, fake.objects)
}

func TestPublish_MissingFile(t *testing.T) {
	p := NewWithClient(newFake(), "catalog", "syncs", testLogger())

	_, err := p.Publish(context.Background(), "run-1", filepath.Join(t.TempDir(), "missing.md"))
	assert.Error(t, err)
}
