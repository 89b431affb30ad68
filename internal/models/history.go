package models

import "time"

// GenerationRecord is a stored successful generation.
type GenerationRecord struct {
	ID        string         `json:"id" doc:"Record identifier"`
	Kind      string         `json:"kind" enum:"storyboard,model" doc:"Kind of generation"`
	Input     string         `json:"input" doc:"Script outline or model description"`
	Output    map[string]any `json:"output" doc:"Validated generation result"`
	CreatedAt time.Time      `json:"createdAt" doc:"Time of the generation"`
}

// SimilarStoryboard is a stored storyboard close to a query outline.
type SimilarStoryboard struct {
	ID            string    `json:"id" doc:"Record identifier"`
	ScriptOutline string    `json:"scriptOutline" doc:"Outline the storyboard was generated from"`
	Similarity    float64   `json:"similarity" doc:"Cosine similarity to the query outline"`
	CreatedAt     time.Time `json:"createdAt" doc:"Time of the generation"`
}

// List stored generations
// GET Path: "/v1/history"

type GetHistoryRequest struct {
	Kind   string `query:"kind" doc:"Only return generations of this kind"`
	Limit  int    `query:"limit" minimum:"1" maximum:"200" default:"20" doc:"Maximum number of records to return"`
	Offset int    `query:"offset" minimum:"0" default:"0" doc:"Offset into the list of records"`
}

type GetHistoryResponse struct {
	Body struct {
		Records []GenerationRecord `json:"records" doc:"Stored generations, newest first"`
	}
}

// Get a single stored generation
// GET Path: "/v1/history/{id}"

type GetHistoryRecordRequest struct {
	ID string `path:"id" format:"uuid" doc:"Record identifier"`
}

type GetHistoryRecordResponse struct {
	Body GenerationRecord
}

// Find stored storyboards with similar outlines
// POST Path: "/v1/history/similars"

type PostSimilarRequest struct {
	Body struct {
		ScriptOutline string `json:"scriptOutline" maxLength:"20000" doc:"Outline to compare against stored storyboards (at least 10 characters)"`
		Count         int    `json:"count,omitempty" minimum:"1" maximum:"50" default:"5" doc:"Number of storyboards to return"`
	}
}

type SimilarResponse struct {
	Body struct {
		Matches []SimilarStoryboard `json:"matches" doc:"Most similar storyboards first"`
	}
}
