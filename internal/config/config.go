package config

import (
	"github.com/spf13/viper"
)

// The agent is expected to run alongside the portal backend (e.g. in EKS)
// with everything below supplied as environment variables per pod. The
// attendance API base URL and bearer token belong to the surrounding
// deployment; the agent only consumes them.

type Config struct {
	DBHost             string `mapstructure:"DB_HOST"`
	DBPort             string `mapstructure:"DB_PORT"`
	DBUser             string `mapstructure:"DB_USER"`
	DBPassword         string `mapstructure:"DB_PASSWORD"`
	DBName             string `mapstructure:"DB_NAME"`
	ServerPort         string `mapstructure:"SERVER_PORT"`
	AWSRegion          string `mapstructure:"AWS_REGION"`
	NotifySQSQueueURL  string `mapstructure:"NOTIFY_SQS_QUEUE_URL"`
	AWSEndpoint        string `mapstructure:"AWS_ENDPOINT"`
	AttendanceAPIURL   string `mapstructure:"ATTENDANCE_API_URL"`
	AttendanceAPIToken string `mapstructure:"ATTENDANCE_API_TOKEN"`
	EmployeeID         string `mapstructure:"EMPLOYEE_ID"`
	EmployeeEmail      string `mapstructure:"EMPLOYEE_EMAIL"`
	CheckoutLocation   string `mapstructure:"CHECKOUT_LOCATION"`
	NotifySender       string `mapstructure:"NOTIFY_SENDER"`
	Timezone           string `mapstructure:"TIMEZONE"`
	OTLPEndpoint       string `mapstructure:"OTLP_ENDPOINT"`
	IsLocalDev         bool   `mapstructure:"IS_LOCAL_DEV"`
}

// LoadConfig reads configuration from environment variables.
func LoadConfig() (config Config, err error) {
	viper.SetDefault("DB_HOST", "db")
	viper.SetDefault("DB_PORT", "5432")
	viper.SetDefault("DB_USER", "user")
	viper.SetDefault("DB_PASSWORD", "password")
	viper.SetDefault("DB_NAME", "autocheckout_db")
	viper.SetDefault("SERVER_PORT", "8080")
	viper.SetDefault("AWS_REGION", "us-east-1") // Default region for AWS services
	viper.SetDefault("NOTIFY_SQS_QUEUE_URL", "http://localstack:4566/000000000000/notify-queue")
	viper.SetDefault("AWS_ENDPOINT", "http://localstack:4566")
	viper.SetDefault("ATTENDANCE_API_URL", "http://localhost:3000/api")
	viper.SetDefault("ATTENDANCE_API_TOKEN", "")
	viper.SetDefault("EMPLOYEE_ID", "")
	viper.SetDefault("EMPLOYEE_EMAIL", "")
	viper.SetDefault("CHECKOUT_LOCATION", "Office")
	viper.SetDefault("NOTIFY_SENDER", "attendance@staff-portal.com")
	viper.SetDefault("TIMEZONE", "Local")
	viper.SetDefault("OTLP_ENDPOINT", "jaeger:4317")
	viper.SetDefault("IS_LOCAL_DEV", false)

	// Read in environment variables that match the keys.
	viper.AutomaticEnv()

	err = viper.Unmarshal(&config)
	return
}
