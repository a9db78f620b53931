package batch

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alucardeht/wayleave/internal/agreement"
	"github.com/alucardeht/wayleave/internal/registry"
)

const goodAgreement = `WAYLEAVE AGREEMENT

Landowner: Mr John Michael Smith & Mrs Jane Smith
Property Address: Rose Cottage
  12 High Street
  Lordswood
  Kent ME5 8UD

Company: Scottish and Southern Energy plc
Wayleave Payment: £250.00 per annum
`

const noCompanyAgreement = `WAYLEAVE AGREEMENT

Landowner: Mrs Ann Jones
Property Address: 3 Mill Lane
  Chatham
  Kent ME4 6AA

Wayleave Payment: £100.00 per annum
`

var fixedNow = time.Date(2024, 3, 14, 9, 0, 0, 0, time.UTC)

type fixture struct {
	inbox     string
	outbox    string
	store     *registry.Store
	processor *Processor
}

func newFixture(t *testing.T, mutate ...func(*Options)) *fixture {
	t.Helper()

	dir := t.TempDir()
	f := &fixture{
		inbox:  filepath.Join(dir, "inbox"),
		outbox: filepath.Join(dir, "outbox"),
	}
	require.NoError(t, os.MkdirAll(f.inbox, 0755))

	store, err := registry.Open(filepath.Join(dir, "registry.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	f.store = store

	opts := DefaultOptions()
	opts.Outbox = f.outbox
	opts.Now = func() time.Time { return fixedNow }
	for _, m := range mutate {
		m(&opts)
	}
	f.processor = NewProcessor(store, opts)
	return f
}

func (f *fixture) write(t *testing.T, rel, content string) string {
	t.Helper()
	path := filepath.Join(f.inbox, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestProcessGeneratesLetter(t *testing.T) {
	f := newFixture(t)
	path := f.write(t, "smith.txt", goodAgreement)

	out, err := f.processor.Process(context.Background(), path)
	require.NoError(t, err)

	assert.Equal(t, registry.StatusGenerated, out.Status)
	assert.Equal(t, agreement.KindAnnual, out.Kind)
	assert.Equal(t, filepath.Join(f.outbox, "Rose Cottage, Lordswood, Kent ME5 8UD.txt"), out.LetterPath)

	text, err := os.ReadFile(out.LetterPath)
	require.NoError(t, err)
	assert.Contains(t, string(text), "14 March 2024")
	assert.Contains(t, string(text), "John Smith\nRose Cottage\n")
	assert.NotContains(t, string(text), "250")

	doc, err := f.store.GetDocument(path)
	require.NoError(t, err)
	require.NotNil(t, doc)
	assert.Equal(t, registry.StatusGenerated, doc.Status)
	assert.Equal(t, out.LetterPath, doc.LetterPath)
	assert.Equal(t, "utf-8", doc.Encoding)
	assert.Len(t, doc.ContentHash, 64)
}

func TestProcessSkipsUnchangedDocument(t *testing.T) {
	f := newFixture(t)
	path := f.write(t, "smith.txt", goodAgreement)

	first, err := f.processor.Process(context.Background(), path)
	require.NoError(t, err)

	second, err := f.processor.Process(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, registry.StatusSkipped, second.Status)
	assert.Equal(t, "unchanged", second.Reason)
	assert.Equal(t, first.LetterPath, second.LetterPath)
}

func TestProcessRegeneratesChangedDocumentInPlace(t *testing.T) {
	f := newFixture(t)
	path := f.write(t, "smith.txt", goodAgreement)

	first, err := f.processor.Process(context.Background(), path)
	require.NoError(t, err)

	f.write(t, "smith.txt", goodAgreement+"\nSigned in duplicate.\n")
	second, err := f.processor.Process(context.Background(), path)
	require.NoError(t, err)

	assert.Equal(t, registry.StatusGenerated, second.Status)
	assert.Equal(t, first.LetterPath, second.LetterPath)

	entries, err := os.ReadDir(f.outbox)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestProcessNameCollision(t *testing.T) {
	f := newFixture(t)
	a := f.write(t, "a.txt", goodAgreement)
	b := f.write(t, "b.txt", goodAgreement)

	outA, err := f.processor.Process(context.Background(), a)
	require.NoError(t, err)
	outB, err := f.processor.Process(context.Background(), b)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(f.outbox, "Rose Cottage, Lordswood, Kent ME5 8UD.txt"), outA.LetterPath)
	assert.Equal(t, filepath.Join(f.outbox, "Rose Cottage, Lordswood, Kent ME5 8UD (2).txt"), outB.LetterPath)
}

func TestProcessRecordsFailure(t *testing.T) {
	f := newFixture(t)
	path := f.write(t, "jones.txt", noCompanyAgreement)

	out, err := f.processor.Process(context.Background(), path)
	require.NoError(t, err)

	assert.Equal(t, registry.StatusFailed, out.Status)
	require.NotEmpty(t, out.Problems)
	assert.Equal(t, agreement.FieldCompanyName, out.Problems[0].Field)

	doc, err := f.store.GetDocument(path)
	require.NoError(t, err)
	require.NotNil(t, doc)
	assert.Equal(t, registry.StatusFailed, doc.Status)
	assert.Contains(t, doc.ErrorMessage, "extraction failed")

	_, err = os.Stat(f.outbox)
	assert.True(t, os.IsNotExist(err), "no letter should be written")
}

func TestProcessSkipsLargeFile(t *testing.T) {
	f := newFixture(t, func(o *Options) { o.MaxFileSize = 16 })
	path := f.write(t, "smith.txt", goodAgreement)

	out, err := f.processor.Process(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, registry.StatusSkipped, out.Status)
	assert.Equal(t, "file too large", out.Reason)

	doc, err := f.store.GetDocument(path)
	require.NoError(t, err)
	require.NotNil(t, doc)
	assert.Equal(t, registry.StatusSkipped, doc.Status)
}

func TestProcessMissingFile(t *testing.T) {
	f := newFixture(t)

	_, err := f.processor.Process(context.Background(), filepath.Join(f.inbox, "missing.txt"))
	require.Error(t, err)
}

func TestProcessCancelled(t *testing.T) {
	f := newFixture(t)
	path := f.write(t, "smith.txt", goodAgreement)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := f.processor.Process(ctx, path)
	require.ErrorIs(t, err, context.Canceled)
}

func TestForget(t *testing.T) {
	f := newFixture(t)
	path := f.write(t, "smith.txt", goodAgreement)

	_, err := f.processor.Process(context.Background(), path)
	require.NoError(t, err)
	require.NoError(t, f.processor.Forget(path))

	doc, err := f.store.GetDocument(path)
	require.NoError(t, err)
	assert.Nil(t, doc)
}
