package handlers

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/evalforge-dev/evalforge/internal/questionbank"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeBank(t *testing.T, dir string, count int) {
	var b strings.Builder

	for i := 1; i <= count; i++ {
		fmt.Fprintf(&b, "## Question %d\n\n", i)
		fmt.Fprintf(&b, "**Question:** bank question %d?\n", i)
		fmt.Fprintf(&b, "**Answer:** answer %d\n\n", i)
	}

	require.NoError(t, os.WriteFile(filepath.Join(dir, "bank.md"), []byte(b.String()), 0o644))
}

func TestSampleQuestionsDrawsFromBank(t *testing.T) {
	dir := t.TempDir()
	writeBank(t, dir, 25)
	t.Setenv("QUESTION_BANK_DIR", dir)

	questions := sampleQuestions()

	require.Len(t, questions, len(questionbank.Sample))
	for _, qa := range questions {
		assert.Contains(t, qa.Question, "bank question")
	}
}

func TestSampleQuestionsFallsBackToBuiltin(t *testing.T) {
	t.Setenv("QUESTION_BANK_DIR", filepath.Join(t.TempDir(), "missing"))

	assert.Equal(t, questionbank.Sample, sampleQuestions())
}
