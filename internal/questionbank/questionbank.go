package questionbank

import (
	"math/rand"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// QA is one question/expected-answer pair.
type QA struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// Sample is the built-in dataset used when no file is uploaded and no
// question bank is configured.
var Sample = []QA{
	{Question: "What is the capital of France?", Answer: "Paris"},
	{Question: "What is 2 + 2?", Answer: "4"},
	{Question: "Who wrote Romeo and Juliet?", Answer: "William Shakespeare"},
	{Question: "What is the largest planet in our solar system?", Answer: "Jupiter"},
	{Question: "What year did World War II end?", Answer: "1945"},
	{Question: "What is the chemical symbol for gold?", Answer: "Au"},
	{Question: "How many continents are there?", Answer: "7"},
	{Question: "What is the square root of 64?", Answer: "8"},
	{Question: "Who painted the Mona Lisa?", Answer: "Leonardo da Vinci"},
	{Question: "What is the speed of light in vacuum?", Answer: "299,792,458 meters per second"},
}

var questionBlock = regexp.MustCompile(`(?s)\*\*Question:\*\*\s*(.*?)\n\*\*Answer:\*\*\s*(.*)`)

// ParseMarkdown extracts question/answer pairs from a markdown question
// bank. Each "## Question N" section holds a **Question:** line and an
// **Answer:** line.
func ParseMarkdown(content string) []QA {
	var questions []QA

	for _, section := range strings.Split(content, "## Question") {
		match := questionBlock.FindStringSubmatch(section)

		if match == nil {
			continue
		}

		answer := match[2]

		// An answer runs until the next blank line.
		if idx := strings.Index(answer, "\n\n"); idx >= 0 {
			answer = answer[:idx]
		}

		question := strings.TrimSpace(match[1])
		answer = strings.TrimSpace(answer)

		if question == "" || answer == "" {
			continue
		}

		questions = append(questions, QA{Question: question, Answer: answer})
	}

	return questions
}

// LoadDir loads every markdown file in a question bank directory. A missing
// or unreadable directory yields an empty bank, not an error.
func LoadDir(dir string) []QA {
	entries, err := os.ReadDir(dir)

	if err != nil {
		return nil
	}

	var all []QA

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".md") {
			continue
		}

		content, err := os.ReadFile(filepath.Join(dir, entry.Name()))

		if err != nil {
			continue
		}

		all = append(all, ParseMarkdown(string(content))...)
	}

	return all
}

// RandomSample draws n random questions from the bank, or the whole bank
// when it holds fewer than n.
func RandomSample(bank []QA, n int) []QA {
	if len(bank) <= n {
		return bank
	}

	picked := make([]QA, len(bank))
	copy(picked, bank)

	rand.Shuffle(len(picked), func(i, j int) {
		picked[i], picked[j] = picked[j], picked[i]
	})

	return picked[:n]
}
