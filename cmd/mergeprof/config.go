package main

type (
	ServiceConfig struct {
		Environment string

		MergesKafkaTopic      string
		ProfilesKafkaTopic    string
		ProfilingKafkaBrokers []string

		ProfilesBucket string
	}
)

var (
	serviceConfigs = map[string]ServiceConfig{
		"production": {
			MergesKafkaTopic:      "profile-merges",
			ProfilesBucket:        "mergeprof-profiles",
			ProfilesKafkaTopic:    "processed-profiles",
			ProfilingKafkaBrokers: []string{"kafka-profiling.service.us-central1.consul:9092"},
		},
		"development": {
			MergesKafkaTopic:      "profile-merges",
			ProfilesBucket:        "mergeprof-profiles",
			ProfilesKafkaTopic:    "processed-profiles",
			ProfilingKafkaBrokers: []string{"localhost:9092"},
		},
	}
)
