package cfg

type (
	App struct {
		Name            string
		Version         string
		DevelopmentMode bool
	}

	Database struct {
		Driver                string
		Path                  string
		Host                  string
		Port                  string
		Username              string
		Password              string
		Database              string
		SSLMode               string
		MaxIdleConnection     int
		MaxOpenConnection     int
		MaxLifeTimeConnection int
	}

	Youtube struct {
		ApiKey       string
		ApiUrl       string
		Queries      []string
		MaxResults   int
		MinViews     int64
		QueryDelayMs int
	}

	Forum struct {
		BaseUrl  string
		Keywords []string
		MinViews int64
	}

	Trends struct {
		BaseUrl        string
		Language       string
		TzOffset       int
		Timeframe      string
		Keywords       []string
		SubjectPrefix  string
		MinInterest    float64
		RequestDelayMs int
		ErrorDelayMs   int
		Retries        int
		BackoffMs      int
	}

	Collector struct {
		Regions        []string
		Sink           string
		RequestTimeout int
	}

	Schedule struct {
		Enabled    bool
		Hour       int
		Minute     int
		Timezone   string
		RunOnStart bool
	}

	Server struct {
		Port int
	}

	Kafka struct {
		Brokers      []string
		TopicRecords string
		GroupID      string
		BatchSize    int
		BatchTimeout int
	}

	Redis struct {
		Addr     string
		Password string
		DB       int
		StatsTTL int
	}
)

type Config struct {
	App       App
	Database  Database
	Youtube   Youtube
	Forum     Forum
	Trends    Trends
	Collector Collector
	Schedule  Schedule
	Server    Server
	Kafka     Kafka
	Redis     Redis
}

const (
	SinkDatabase = "database"
	SinkKafka    = "kafka"
)
