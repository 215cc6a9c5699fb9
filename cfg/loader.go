package cfg

type Loader interface {
	Load() (*Config, error)
}

// Defaults mirrors cfg/yaml/mode.yaml and is what MockLoader serves.
func Defaults() *Config {
	return &Config{
		App: App{
			Name:            "workflow-popularity",
			Version:         "0.1.0",
			DevelopmentMode: true,
		},
		Database: Database{
			Driver:                "sqlite",
			Path:                  "data/workflows.db",
			Host:                  "127.0.0.1",
			Port:                  "3306",
			Username:              "root",
			Database:              "workflows",
			SSLMode:               "disable",
			MaxIdleConnection:     5,
			MaxOpenConnection:     10,
			MaxLifeTimeConnection: 3600,
		},
		Youtube: Youtube{
			ApiUrl: "https://www.googleapis.com/youtube/v3",
			Queries: []string{
				"n8n workflow automation",
				"n8n tutorial workflow",
				"n8n integration workflow",
				"n8n slack automation",
				"n8n google sheets workflow",
				"n8n email automation",
				"n8n webhook workflow",
				"n8n database automation",
				"n8n api integration",
				"n8n zapier alternative",
			},
			MaxResults:   25,
			MinViews:     100,
			QueryDelayMs: 100,
		},
		Forum: Forum{
			BaseUrl:  "https://community.n8n.io",
			Keywords: []string{"workflow", "automation", "integration", "template", "tutorial"},
			MinViews: 50,
		},
		Trends: Trends{
			BaseUrl:   "https://trends.google.com",
			Language:  "en-US",
			TzOffset:  360,
			Timeframe: "today 1-m",
			Keywords: []string{
				"n8n slack automation",
				"n8n google sheets integration",
				"n8n email automation",
				"n8n webhook workflow",
				"n8n database automation",
			},
			SubjectPrefix:  "n8n ",
			MinInterest:    5,
			RequestDelayMs: 1000,
			ErrorDelayMs:   2000,
			Retries:        2,
			BackoffMs:      500,
		},
		Collector: Collector{
			Regions:        []string{"US", "IN"},
			Sink:           SinkDatabase,
			RequestTimeout: 30,
		},
		Schedule: Schedule{
			Enabled:    true,
			Hour:       2,
			Minute:     0,
			Timezone:   "Local",
			RunOnStart: true,
		},
		Server: Server{
			Port: 8000,
		},
		Kafka: Kafka{
			Brokers:      []string{"127.0.0.1:9092"},
			TopicRecords: "workflow-records",
			GroupID:      "workflow-records-consumer",
			BatchSize:    100,
			BatchTimeout: 5,
		},
		Redis: Redis{
			StatsTTL: 300,
		},
	}
}
