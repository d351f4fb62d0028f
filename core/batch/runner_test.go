package batch

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emenda-labs/xsdiff/core/comparison"
	"github.com/emenda-labs/xsdiff/core/report"
	"github.com/emenda-labs/xsdiff/pkg/listing"
)

type fakeComparer struct {
	mu    sync.Mutex
	calls []string
	fail  map[string]error
}

func (c *fakeComparer) ComparePair(ctx context.Context, first, second string) ([]comparison.Record, error) {
	c.mu.Lock()
	c.calls = append(c.calls, filepath.Base(second))
	c.mu.Unlock()
	if err, ok := c.fail[filepath.Base(second)]; ok {
		return nil, err
	}
	return []comparison.Record{
		{TypeName: "Same"},
		{TypeName: "Changed", OnlyInSecond: "element: x"},
	}, nil
}

type recordingWriter struct {
	mu       sync.Mutex
	sessions map[string]*recordingSession
}

type recordingSession struct {
	dir, hint, header string
	records           []comparison.Record
	finished, aborted bool
}

func newRecordingWriter() *recordingWriter {
	return &recordingWriter{sessions: make(map[string]*recordingSession)}
}

func (w *recordingWriter) Format() string { return "rec" }

func (w *recordingWriter) Begin(dir, hint, header string) (report.Session, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	s := &recordingSession{dir: dir, hint: hint, header: header}
	w.sessions[hint] = s
	return s, nil
}

func (s *recordingSession) Write(rec comparison.Record) error {
	s.records = append(s.records, rec)
	return nil
}

func (s *recordingSession) Finish() error {
	s.finished = true
	return os.WriteFile(filepath.Join(s.dir, "diff-report-"+s.hint+".rec"), []byte(s.header), 0o644)
}

func (s *recordingSession) Abort() { s.aborted = true }

type countingBundler struct {
	calls int
	err   error
}

func (b *countingBundler) Bundle(dir string) error {
	b.calls++
	return b.err
}

type fixture struct {
	first, second string
	out           string
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func manifestFixture(t *testing.T, names ...string) fixture {
	t.Helper()
	root := t.TempDir()
	f := fixture{
		first:  filepath.Join(root, "v1"),
		second: filepath.Join(root, "v2"),
		out:    filepath.Join(root, "report"),
	}
	listingBody := ""
	for _, n := range names {
		writeFile(t, filepath.Join(f.first, n), "<a/>")
		writeFile(t, filepath.Join(f.second, n), "<a/>")
		listingBody += n + "\n"
	}
	writeFile(t, filepath.Join(f.second, listing.FileName), listingBody)
	return f
}

func newTestRunner(c report.Comparer, w report.Writer, b report.Bundler, opts ...Option) *Runner {
	opts = append([]Option{WithOutput(&bytes.Buffer{})}, opts...)
	return NewRunner(c, []report.Writer{w}, b, listing.NewReader(nil), opts...)
}

func TestRun_PairMode(t *testing.T) {
	root := t.TempDir()
	a := filepath.Join(root, "old", "orders.xsd")
	b := filepath.Join(root, "new", "orders-v2.xsd")
	writeFile(t, a, "<a/>")
	writeFile(t, b, "<a/>")

	w := newRecordingWriter()
	bundler := &countingBundler{}
	var out bytes.Buffer
	r := newTestRunner(&fakeComparer{}, w, bundler, WithOutput(&out))

	res, err := r.Run(context.Background(), Request{First: a, Second: b, ReportDir: filepath.Join(root, "out")})
	require.NoError(t, err)

	assert.Equal(t, ModePair, res.Mode)
	require.Len(t, res.Jobs, 1)
	assert.Equal(t, StatusOK, res.Jobs[0].Status)
	assert.Equal(t, comparison.Summary{Types: 2, WithDifferences: 1, WithAdditions: 1}, res.Jobs[0].Summary)

	s := w.sessions["orders-v2.xsd"]
	require.NotNil(t, s, "report hint should come from the second file name")
	assert.Equal(t, "comparing: "+a+" with "+b, s.header)
	assert.True(t, s.finished)
	assert.Len(t, s.records, 2)
	assert.Equal(t, 1, bundler.calls)
	assert.Contains(t, out.String(), "compare: orders-v2.xsd")
}

func TestRun_ManifestModeTwoEntries(t *testing.T) {
	f := manifestFixture(t, "orders.xsd", "customers.xsd")

	w := newRecordingWriter()
	bundler := &countingBundler{}
	c := &fakeComparer{}
	r := newTestRunner(c, w, bundler)

	res, err := r.Run(context.Background(), Request{First: f.first, Second: f.second, ReportDir: f.out})
	require.NoError(t, err)

	assert.Equal(t, ModeManifest, res.Mode)
	assert.Equal(t, []string{"orders.xsd", "customers.xsd"}, c.calls, "jobs run in listing order")
	assert.Equal(t, 1, bundler.calls, "resources bundled once per run")

	entries, err := os.ReadDir(f.out)
	require.NoError(t, err)
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	assert.ElementsMatch(t, []string{"diff-report-orders.xsd.rec", "diff-report-customers.xsd.rec"}, names)
	assert.Equal(t, "comparing: "+filepath.Join(f.first, "orders.xsd")+" with "+filepath.Join(f.second, "orders.xsd"),
		w.sessions["orders.xsd"].header)
}

func TestRun_MissingListingFile(t *testing.T) {
	root := t.TempDir()
	first := filepath.Join(root, "v1")
	second := filepath.Join(root, "v2")
	require.NoError(t, os.MkdirAll(first, 0o755))
	require.NoError(t, os.MkdirAll(second, 0o755))
	out := filepath.Join(root, "report")

	bundler := &countingBundler{}
	r := newTestRunner(&fakeComparer{}, newRecordingWriter(), bundler)

	_, err := r.Run(context.Background(), Request{First: first, Second: second, ReportDir: out})

	var missing *MissingListingError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, filepath.Join(second, listing.FileName), missing.Path)
	assert.True(t, IsPreflight(err))
	assert.NoDirExists(t, out)
	assert.Zero(t, bundler.calls)
}

func TestRun_CollidingListingEntriesCreateNothing(t *testing.T) {
	f := manifestFixture(t, "sub/a.xsd", "sub_a.xsd")
	cmp := &fakeComparer{}
	bundler := &countingBundler{}
	r := newTestRunner(cmp, newRecordingWriter(), bundler)

	_, err := r.Run(context.Background(), Request{First: f.first, Second: f.second, ReportDir: f.out})

	var input *InputError
	require.ErrorAs(t, err, &input)
	assert.True(t, IsPreflight(err))
	assert.NoDirExists(t, f.out)
	assert.Empty(t, cmp.calls)
	assert.Zero(t, bundler.calls)
}

func TestRun_DirectoryConflictOnSecondRun(t *testing.T) {
	f := manifestFixture(t, "orders.xsd")
	r := newTestRunner(&fakeComparer{}, newRecordingWriter(), &countingBundler{})

	_, err := r.Run(context.Background(), Request{First: f.first, Second: f.second, ReportDir: f.out})
	require.NoError(t, err)

	artifact := filepath.Join(f.out, "diff-report-orders.xsd.rec")
	before, err := os.ReadFile(artifact)
	require.NoError(t, err)

	c := &fakeComparer{}
	bundler := &countingBundler{}
	r2 := newTestRunner(c, newRecordingWriter(), bundler)
	_, err = r2.Run(context.Background(), Request{First: f.first, Second: f.second, ReportDir: f.out})

	var conflict *DirectoryConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, f.out, conflict.Path)
	assert.True(t, errors.Is(err, os.ErrExist))
	assert.Empty(t, c.calls, "no job may run after a directory conflict")
	assert.Zero(t, bundler.calls)

	after, err := os.ReadFile(artifact)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestRun_DefaultReportDirFromClock(t *testing.T) {
	f := manifestFixture(t, "orders.xsd")
	t.Chdir(t.TempDir())

	clock := func() time.Time { return time.Date(2024, 3, 9, 7, 5, 0, 0, time.Local) }
	r := newTestRunner(&fakeComparer{}, newRecordingWriter(), &countingBundler{}, WithClock(clock))

	res, err := r.Run(context.Background(), Request{First: f.first, Second: f.second})
	require.NoError(t, err)
	assert.Equal(t, "report-2024-03-09-0705", res.ReportDir)
	assert.DirExists(t, "report-2024-03-09-0705")
}

func TestRun_ManifestFailureIsFatalByDefault(t *testing.T) {
	f := manifestFixture(t, "a.xsd", "b.xsd", "c.xsd")
	parseErr := errors.New("unexpected EOF")
	c := &fakeComparer{fail: map[string]error{"b.xsd": parseErr}}
	bundler := &countingBundler{}
	r := newTestRunner(c, newRecordingWriter(), bundler)

	res, err := r.Run(context.Background(), Request{First: f.first, Second: f.second, ReportDir: f.out})
	require.Error(t, err)
	assert.ErrorIs(t, err, parseErr)

	var jobErr *JobError
	require.ErrorAs(t, err, &jobErr)
	assert.Equal(t, "b.xsd", jobErr.Job.Hint)

	assert.Equal(t, []string{"a.xsd", "b.xsd"}, c.calls, "jobs after the failure must not run")
	assert.Equal(t, StatusOK, res.Jobs[0].Status)
	assert.Equal(t, StatusFailed, res.Jobs[1].Status)
	assert.Equal(t, StatusSkipped, res.Jobs[2].Status)
	assert.Zero(t, bundler.calls)
}

func TestRun_ManifestKeepGoing(t *testing.T) {
	f := manifestFixture(t, "a.xsd", "b.xsd", "c.xsd")
	c := &fakeComparer{fail: map[string]error{
		"a.xsd": errors.New("bad a"),
		"c.xsd": errors.New("bad c"),
	}}
	bundler := &countingBundler{}
	w := newRecordingWriter()
	r := newTestRunner(c, w, bundler)

	res, err := r.Run(context.Background(), Request{First: f.first, Second: f.second, ReportDir: f.out, KeepGoing: true})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad a")
	assert.Contains(t, err.Error(), "bad c")

	assert.Equal(t, 2, res.Failed())
	assert.Equal(t, StatusOK, res.Jobs[1].Status)
	assert.Len(t, c.calls, 3)
	assert.Equal(t, 1, bundler.calls, "resources still bundled when failures are isolated")
	assert.Contains(t, w.sessions, "b.xsd")
}

func TestRun_PairFailureIgnoresKeepGoing(t *testing.T) {
	root := t.TempDir()
	a := filepath.Join(root, "a.xsd")
	b := filepath.Join(root, "b.xsd")
	writeFile(t, a, "x")
	writeFile(t, b, "x")

	bundler := &countingBundler{}
	c := &fakeComparer{fail: map[string]error{"b.xsd": errors.New("broken")}}
	r := newTestRunner(c, newRecordingWriter(), bundler)

	_, err := r.Run(context.Background(), Request{First: a, Second: b, ReportDir: filepath.Join(root, "out"), KeepGoing: true})
	require.Error(t, err)
	assert.Zero(t, bundler.calls)
}

func TestRun_ParallelWorkers(t *testing.T) {
	names := []string{"a.xsd", "b.xsd", "c.xsd", "d.xsd", "e.xsd"}
	f := manifestFixture(t, names...)
	c := &fakeComparer{}
	w := newRecordingWriter()
	bundler := &countingBundler{}
	r := newTestRunner(c, w, bundler)

	res, err := r.Run(context.Background(), Request{First: f.first, Second: f.second, ReportDir: f.out, Workers: 3})
	require.NoError(t, err)

	calls := append([]string(nil), c.calls...)
	sort.Strings(calls)
	assert.Equal(t, names, calls)
	assert.Len(t, w.sessions, len(names))
	assert.Equal(t, 1, bundler.calls)
	for i, j := range res.Jobs {
		assert.Equal(t, names[i], j.Job.Hint, "results stay in listing order")
		assert.Equal(t, StatusOK, j.Status)
	}
}

func TestRun_BundlerFailure(t *testing.T) {
	f := manifestFixture(t, "a.xsd")
	bundleErr := errors.New("resource css/xsdiff.css not found")
	r := newTestRunner(&fakeComparer{}, newRecordingWriter(), &countingBundler{err: bundleErr})

	_, err := r.Run(context.Background(), Request{First: f.first, Second: f.second, ReportDir: f.out})
	assert.ErrorIs(t, err, bundleErr)
}

func TestRun_CancelledBeforeJobs(t *testing.T) {
	f := manifestFixture(t, "a.xsd", "b.xsd")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c := &fakeComparer{}
	bundler := &countingBundler{}
	r := newTestRunner(c, newRecordingWriter(), bundler)

	_, err := r.Run(ctx, Request{First: f.first, Second: f.second, ReportDir: f.out, KeepGoing: true})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, c.calls)
	assert.Zero(t, bundler.calls)
}
