package main

import (
	"context"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/profilekit/mergeprof/internal/merge"
	"github.com/profilekit/mergeprof/internal/timerange"
)

type (
	// KafkaWriter is the subset of kafka.Writer the handlers need.
	KafkaWriter interface {
		WriteMessages(ctx context.Context, msgs ...kafka.Message) error
		Close() error
	}

	// ProfileKafkaMessage is representing the struct we send to Kafka when a profile was ingested
	ProfileKafkaMessage struct {
		CategoryCount  int     `json:"category_count"`
		Interval       float64 `json:"interval"`
		OrganizationID uint64  `json:"organization_id"`
		ProfileID      string  `json:"profile_id"`
		ProjectID      uint64  `json:"project_id"`
		Received       int64   `json:"received"`
		ThreadCount    int     `json:"thread_count"`
	}

	// MergeKafkaMessage is representing the struct we send to Kafka when profiles were merged
	MergeKafkaMessage struct {
		CategoryCount  int      `json:"category_count"`
		DurationMS     float64  `json:"duration_ms"`
		Interval       float64  `json:"interval"`
		OrganizationID uint64   `json:"organization_id"`
		ProfileIDs     []string `json:"profile_ids"`
		ThreadCount    int      `json:"thread_count"`
		Timestamp      int64    `json:"timestamp"`
	}
)

func buildProfileKafkaMessage(req PostProfileRequest, received time.Time) ProfileKafkaMessage {
	return ProfileKafkaMessage{
		CategoryCount:  len(req.Profile.Meta.Categories),
		Interval:       req.Profile.Meta.Interval,
		OrganizationID: req.OrganizationID,
		ProfileID:      req.ProfileID,
		ProjectID:      req.ProjectID,
		Received:       received.Unix(),
		ThreadCount:    len(req.Profile.Threads),
	}
}

func buildMergeKafkaMessage(req PostProfilesMergeRequest, result merge.Result, timestamp time.Time) MergeKafkaMessage {
	profileIDs := make([]string, 0, len(req.Candidates))
	for _, candidate := range req.Candidates {
		profileIDs = append(profileIDs, candidate.ProfileID)
	}
	r := timerange.IncludingAllThreads(result.Profile)
	return MergeKafkaMessage{
		CategoryCount:  len(result.Profile.Meta.Categories),
		DurationMS:     r.End - r.Start,
		Interval:       result.Profile.Meta.Interval,
		OrganizationID: req.OrganizationID,
		ProfileIDs:     profileIDs,
		ThreadCount:    len(result.Profile.Threads),
		Timestamp:      timestamp.Unix(),
	}
}
