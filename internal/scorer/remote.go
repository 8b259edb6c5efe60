package scorer

import (
	"bytes"
	"encoding/json"
	"log"
	"net/http"
	"time"
)

// Remote scores against an external scoring sidecar. Any transport or decode
// failure degrades to all-nil scores rather than surfacing an error.
type Remote struct {
	url        string
	httpClient *http.Client
}

func NewRemote(url string) *Remote {
	return &Remote{
		url:        url,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

type scoreRequest struct {
	Reference string `json:"reference"`
	Candidate string `json:"candidate"`
}

func (r *Remote) Score(reference, candidate string) Scores {
	payload, err := json.Marshal(scoreRequest{Reference: reference, Candidate: candidate})

	if err != nil {
		log.Printf("Scorer: failed to encode request: %v", err)
		return Scores{}
	}

	resp, err := r.httpClient.Post(r.url, "application/json", bytes.NewBuffer(payload))

	if err != nil {
		log.Printf("Scorer: request failed: %v", err)
		return Scores{}
	}

	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		log.Printf("Scorer: unexpected status %s", resp.Status)
		return Scores{}
	}

	var scores Scores

	if err := json.NewDecoder(resp.Body).Decode(&scores); err != nil {
		log.Printf("Scorer: invalid response: %v", err)
		return Scores{}
	}

	return scores
}
