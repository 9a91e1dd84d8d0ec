package main

import (
	"bytes"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/makemore/internal/config"
	"github.com/born-ml/makemore/internal/model"
)

const names = "emma\nolivia\nava\nisabella\nsophia\nmia\namelia\nharper\nevelyn\nabigail\n"

// execute runs the root command in an empty working directory.
func execute(t *testing.T, args ...string) (stdout, stderr string, err error) {
	t.Helper()
	var out, errOut bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetArgs(args)
	err = rootCmd.Execute()
	return out.String(), errOut.String(), err
}

func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	chdir(t, dir)
	t.Setenv("HOME", dir)
	return dir
}

func TestFormatter(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(&buf, false)

	logger.WithFields(logrus.Fields{"loss": 2.5, "epoch": 1}).Info("epoch done")
	logger.Warn("careful")
	logger.Error("broken")
	logger.Debug("hidden")

	assert.Equal(t, "[INF] epoch done epoch=1 loss=2.5\n[WRN] careful\n[ERR] broken\n", buf.String())

	buf.Reset()
	newLogger(&buf, true).Debug("shown")
	assert.Equal(t, "[DBG] shown\n", buf.String())
}

func TestSwitchKind(t *testing.T) {
	c, err := config.Default(model.KindMLP)
	require.NoError(t, err)

	require.NoError(t, switchKind(c, model.KindBigram, false))
	assert.Equal(t, model.KindBigram, c.Model.Kind)
	assert.Equal(t, 256, c.Train.BatchSize, "file settings kept")

	require.NoError(t, switchKind(c, model.KindBigram, true))
	assert.Equal(t, 0, c.Train.BatchSize)
}

func TestVersion(t *testing.T) {
	out, _, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "makemore "+version)
}

func TestEncode(t *testing.T) {
	isolate(t)
	out, _, err := execute(t, "encode", "--model", "mlp", "--limit", "0", "emma")
	require.NoError(t, err)
	assert.Equal(t, strings.Join([]string{
		"5 examples from 1 words (context width 3)",
		"... ---> e",
		"..e ---> m",
		".em ---> m",
		"emm ---> a",
		"mma ---> .",
		"",
	}, "\n"), out)

	_, _, err = execute(t, "encode", "--model", "mlp", "Emma")
	assert.Error(t, err)
}

func TestSample_NeedsCheckpoint(t *testing.T) {
	isolate(t)
	_, _, err := execute(t, "sample", "--model", "bigram")
	assert.Error(t, err)
}

func TestTrainAndSample(t *testing.T) {
	dir := isolate(t)
	corpusFile := filepath.Join(dir, "names.txt")
	require.NoError(t, os.WriteFile(corpusFile, []byte(names), 0o600))
	ckpt := filepath.Join(dir, "bigram.safetensors")

	out, logs, err := execute(t, "train", "--model", "bigram", "--corpus", corpusFile, "--epochs", "3", "--samples", "4", "-o", ckpt)
	require.NoError(t, err)
	assert.Equal(t, 4, strings.Count(out, "\n"))
	assert.Regexp(t, regexp.MustCompile(`^[a-z\n]*$`), out)
	assert.Contains(t, logs, "[INF] corpus loaded")
	assert.Contains(t, logs, "[INF] checkpoint saved")
	assert.FileExists(t, ckpt)

	out, _, err = execute(t, "sample", "--model", "bigram", "--corpus", corpusFile, "-m", ckpt, "-n", "3")
	require.NoError(t, err)
	assert.Equal(t, 3, strings.Count(out, "\n"))

	again, _, err := execute(t, "sample", "--model", "bigram", "--corpus", corpusFile, "-m", ckpt, "-n", "3")
	require.NoError(t, err)
	assert.Equal(t, out, again, "same seed, same names")
}

// chdir changes the working directory for the duration of the test
// (stand-in for testing.T.Chdir, which requires Go 1.24).
func chdir(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		if err := os.Chdir(prev); err != nil {
			t.Fatal(err)
		}
	})
}
