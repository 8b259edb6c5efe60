package questionbank

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
)

// ParseCSV reads an uploaded dataset with "question" and "answer" columns.
// Column order does not matter; extra columns are ignored.
func ParseCSV(r io.Reader) ([]QA, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()

	if err != nil {
		return nil, fmt.Errorf("reading CSV header: %w", err)
	}

	questionCol, answerCol := -1, -1

	for i, name := range header {
		switch strings.ToLower(strings.TrimSpace(name)) {
		case "question":
			questionCol = i
		case "answer":
			answerCol = i
		}
	}

	if questionCol < 0 || answerCol < 0 {
		return nil, fmt.Errorf("CSV must have question and answer columns")
	}

	var questions []QA

	for {
		record, err := reader.Read()

		if err == io.EOF {
			break
		}

		if err != nil {
			return nil, fmt.Errorf("reading CSV row: %w", err)
		}

		if questionCol >= len(record) || answerCol >= len(record) {
			continue
		}

		questions = append(questions, QA{
			Question: strings.TrimSpace(record[questionCol]),
			Answer:   strings.TrimSpace(record[answerCol]),
		})
	}

	return questions, nil
}
