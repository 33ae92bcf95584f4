package handler

import "pdpnode/internal/statistics"

// StatisticsResponse is the body of GET /policy/pdpx/v1/statistics.
type StatisticsResponse struct {
	Code int `json:"code"`
	statistics.Snapshot
}

// HealthResponse is the body of GET /policy/pdpx/v1/healthcheck.
type HealthResponse struct {
	Name    string `json:"name"`
	URL     string `json:"url"`
	Healthy bool   `json:"healthy"`
	Code    int    `json:"code"`
	Message string `json:"message"`
}
