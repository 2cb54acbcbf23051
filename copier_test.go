package copyexamplegen

import (
	"context"
	"errors"
	"testing"

	"github.com/bcongdon/copyexamplegen/internal/pkg/corfs"
	log "github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCopier(fileSys corfs.FileSystem, overwrite OverwritePolicy) (*copier, *test.Hook) {
	logger, hook := test.NewNullLogger()
	return &copier{
		suffix:    ".gz",
		overwrite: overwrite,
		resolve: func(string) (corfs.FileSystem, error) {
			return fileSys, nil
		},
		log: logger,
	}, hook
}

func warnings(hook *test.Hook) []string {
	msgs := make([]string, 0)
	for _, entry := range hook.AllEntries() {
		if entry.Level == log.WarnLevel {
			msgs = append(msgs, entry.Message)
		}
	}
	return msgs
}

func TestCopyExamplesEmptyDirectory(t *testing.T) {
	fileSys := newMemFileSystem()
	fileSys.put("mock_uri/schema.pbtxt", "not an example")
	cp, hook := newTestCopier(fileSys, OverwriteExisting)

	result, err := cp.copyExamples(context.Background(), "mock_uri", "mock_uri_2")
	require.NoError(t, err)

	assert.Equal(t, []string{"Directory mock_uri does not contain files with .gz suffix."}, warnings(hook))
	assert.Equal(t, copyResult{}, result)
	assert.Empty(t, fileSys.filesUnder("mock_uri_2"))
}

func TestCopyExamplesCopiesMatchingFiles(t *testing.T) {
	fileSys := newMemFileSystem()
	fileSys.put("in/train/data-00000-of-00002.gz", "first")
	fileSys.put("in/train/data-00001-of-00002.gz", "second")
	fileSys.put("in/train/schema.pbtxt", "schema")
	fileSys.put("in/train/nested/data-00002-of-00002.gz", "nested")
	cp, hook := newTestCopier(fileSys, OverwriteExisting)

	result, err := cp.copyExamples(context.Background(), "in/train", "out/Split-train")
	require.NoError(t, err)

	assert.Empty(t, warnings(hook))
	assert.Equal(t, copyResult{Copied: 2, Bytes: 11}, result)
	assert.Equal(t, []string{
		"out/Split-train/data-00000-of-00002.gz",
		"out/Split-train/data-00001-of-00002.gz",
	}, fileSys.filesUnder("out"))

	contents, _ := fileSys.contents("out/Split-train/data-00001-of-00002.gz")
	assert.Equal(t, "second", contents)
}

func TestCopyExamplesCustomSuffix(t *testing.T) {
	fileSys := newMemFileSystem()
	fileSys.put("in/data.tfrecord", "record")
	fileSys.put("in/data.gz", "gzipped")
	cp, hook := newTestCopier(fileSys, OverwriteExisting)
	cp.suffix = ".tfrecord"

	result, err := cp.copyExamples(context.Background(), "in", "out")
	require.NoError(t, err)

	assert.Empty(t, warnings(hook))
	assert.Equal(t, 1, result.Copied)
	assert.Equal(t, []string{"out/data.tfrecord"}, fileSys.filesUnder("out"))

	_, err = cp.copyExamples(context.Background(), "empty", "out")
	require.NoError(t, err)
	assert.Equal(t, []string{"Directory empty does not contain files with .tfrecord suffix."}, warnings(hook))
}

func TestCopyExamplesOverwritePolicies(t *testing.T) {
	var overwriteTests = []struct {
		policy           OverwritePolicy
		expectedErr      error
		expectedContents string
		expectedResult   copyResult
	}{
		{OverwriteExisting, nil, "new", copyResult{Copied: 1, Bytes: 3}},
		{SkipExisting, nil, "old", copyResult{Skipped: 1}},
		{ErrorOnExisting, ErrDestinationExists, "old", copyResult{}},
	}

	for _, tt := range overwriteTests {
		t.Run(string(tt.policy), func(t *testing.T) {
			fileSys := newMemFileSystem()
			fileSys.put("in/data.gz", "new")
			fileSys.put("out/data.gz", "old")
			cp, _ := newTestCopier(fileSys, tt.policy)

			result, err := cp.copyExamples(context.Background(), "in", "out")
			if tt.expectedErr != nil {
				assert.ErrorIs(t, err, tt.expectedErr)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, tt.expectedResult, result)

			contents, _ := fileSys.contents("out/data.gz")
			assert.Equal(t, tt.expectedContents, contents)
		})
	}
}

func TestCopyExamplesSkipCopiesNewFiles(t *testing.T) {
	fileSys := newMemFileSystem()
	fileSys.put("in/a.gz", "a")
	fileSys.put("in/b.gz", "b")
	fileSys.put("out/a.gz", "old a")
	cp, _ := newTestCopier(fileSys, SkipExisting)

	result, err := cp.copyExamples(context.Background(), "in", "out")
	require.NoError(t, err)
	assert.Equal(t, copyResult{Copied: 1, Skipped: 1, Bytes: 1}, result)

	contents, _ := fileSys.contents("out/b.gz")
	assert.Equal(t, "b", contents)
}

func TestCopyExamplesIsRepeatable(t *testing.T) {
	fileSys := newMemFileSystem()
	fileSys.put("in/a.gz", "a")
	fileSys.put("in/b.gz", "b")
	cp, _ := newTestCopier(fileSys, OverwriteExisting)

	_, err := cp.copyExamples(context.Background(), "in", "out")
	require.NoError(t, err)
	first := fileSys.filesUnder("out")

	_, err = cp.copyExamples(context.Background(), "in", "out")
	require.NoError(t, err)
	assert.Equal(t, first, fileSys.filesUnder("out"))
}

func TestCopyExamplesPropagatesWriteErrors(t *testing.T) {
	errDiskFull := errors.New("no space left on device")
	fileSys := newMemFileSystem()
	fileSys.put("in/a.gz", "a")
	fileSys.failWrites["out"] = errDiskFull
	cp, hook := newTestCopier(fileSys, OverwriteExisting)

	_, err := cp.copyExamples(context.Background(), "in", "out")
	assert.ErrorIs(t, err, errDiskFull)
	assert.Contains(t, err.Error(), "in/a.gz")
	assert.Empty(t, warnings(hook))
}

func TestCopyExamplesStopsWhenCancelled(t *testing.T) {
	fileSys := newMemFileSystem()
	fileSys.put("in/a.gz", "a")
	cp, _ := newTestCopier(fileSys, OverwriteExisting)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := cp.copyExamples(ctx, "in", "out")
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, fileSys.filesUnder("out"))
}

func TestCopyExamplesOntoItself(t *testing.T) {
	for _, policy := range []OverwritePolicy{OverwriteExisting, SkipExisting, ErrorOnExisting} {
		fileSys := newMemFileSystem()
		fileSys.put("out/Split-train/a.gz", "example")
		cp, hook := newTestCopier(fileSys, policy)

		result, err := cp.copyExamples(context.Background(), "out/Split-train/", "out/Split-train")
		require.NoError(t, err, policy)
		assert.Equal(t, copyResult{Skipped: 1}, result, policy)
		assert.Empty(t, warnings(hook), policy)

		contents, _ := fileSys.contents("out/Split-train/a.gz")
		assert.Equal(t, "example", contents, policy)
	}
}

func TestSamePath(t *testing.T) {
	assert.True(t, samePath("out/Split-train/a.gz", "./out/Split-train//a.gz"))
	assert.True(t, samePath("s3://bucket/train/a.gz", "s3://bucket/train/a.gz"))
	assert.False(t, samePath("s3://bucket/train/a.gz", "s3://other/train/a.gz"))
	assert.False(t, samePath("in/a.gz", "out/a.gz"))
}

func TestCachingResolver(t *testing.T) {
	resolve := newCachingResolver()

	first, err := resolve("s3://bucket/train/")
	require.NoError(t, err)
	second, err := resolve("s3://other/eval/")
	require.NoError(t, err)
	assert.Same(t, first, second)
	assert.IsType(t, &corfs.S3FileSystem{}, first)

	local, err := resolve("/tmp/examples")
	require.NoError(t, err)
	assert.IsType(t, &corfs.LocalFileSystem{}, local)
}

func TestBaseName(t *testing.T) {
	assert.Equal(t, "data.gz", baseName("s3://bucket/train/data.gz"))
	assert.Equal(t, "data.gz", baseName("/tmp/train/data.gz"))
	assert.Equal(t, "data.gz", baseName("data.gz"))
}
