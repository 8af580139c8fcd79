package main

import (
	// Go Internal Packages
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	// Local Packages
	config "waypay/config"
	gateway "waypay/gateway"
	helpers "waypay/helpers"
	kafka "waypay/kafka"
	models "waypay/models"
	mongodb "waypay/repositories/mongodb"
	redis "waypay/repositories/redis"
	workflow "waypay/services/workflow"

	// External Packages
	"github.com/alecthomas/kingpin/v2"
	_ "github.com/jsternberg/zap-logfmt"
	"github.com/knadh/koanf"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/twmb/franz-go/plugin/kprom"
	"go.uber.org/zap"
)

var (
	flow     = kingpin.Flag("flow", "Flow to run: ticket or vote").Default("ticket").String()
	target   = kingpin.Flag("target", "Ticket type or pageant candidate id").Required().String()
	quantity = kingpin.Flag("quantity", "Number of tickets or votes").Default("1").Int()
	amount   = kingpin.Flag("amount", "Amount to charge in XAF").Required().Int64()
	method   = kingpin.Flag("method", "Payment method: 'MOMO CM' or 'OM CM'").Default(string(models.MethodMTNMomo)).String()
	phone    = kingpin.Flag("phone", "Mobile money number").Required().String()
	email    = kingpin.Flag("email", "Contact e-mail").Required().String()
	fullName = kingpin.Flag("name", "Purchaser or voter full name").Required().String()
)

// LoadSecrets Loads the secret variables and overrides the config
func LoadSecrets(k config.Config) config.Config {
	APIKey := os.Getenv("GATEWAY_API_KEY")
	if APIKey != "" {
		k.Gateway.APIKey = APIKey
	}

	RedisPassword := os.Getenv("REDIS_PASSWORD")
	if RedisPassword != "" {
		k.Redis.Password = RedisPassword
	}

	MongoURI := os.Getenv("MONGO_URI")
	if MongoURI != "" {
		k.Mongo.URI = MongoURI
	}

	IsProdMode := os.Getenv("IS_PROD_MODE")
	if IsProdMode != "" {
		k.IsProdMode = IsProdMode == "true"
	}
	return k
}

// LoadConfig loads the default configuration and overrides it with the config file
// specified by the path defined in the config flag
func LoadConfig() *koanf.Koanf {
	configPathMsg := "Path to the application config file"
	configPath := kingpin.Flag("config", configPathMsg).Short('c').Default("config.yml").String()

	kingpin.Parse()
	k := koanf.New(".")
	_ = k.Load(rawbytes.Provider(config.DefaultConfig), yaml.Parser())
	if *configPath != "" {
		_ = k.Load(file.Provider(*configPath), yaml.Parser())
	}
	return k
}

func main() {
	k := LoadConfig()
	appKonf := config.Config{}

	// Unmarshalling config into struct
	err := k.Unmarshal("", &appKonf)
	if err != nil {
		log.Fatalf("Error loading config: %v", err)
	}

	// Update and Validate config before starting
	updatedKonf := LoadSecrets(appKonf)
	if err = updatedKonf.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	if !updatedKonf.IsProdMode {
		k.Print()
	}

	cfg := zap.NewProductionConfig()
	cfg.Encoding = "logfmt"
	_ = cfg.Level.UnmarshalText([]byte(k.String("logger.level")))
	cfg.InitialFields = make(map[string]any)
	cfg.InitialFields["host"], _ = os.Hostname()
	cfg.InitialFields["service"] = updatedKonf.Application
	cfg.OutputPaths = []string{"stdout"}
	logger, _ := cfg.Build()
	defer func() {
		_ = logger.Sync()
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Redis Connection (pending-intent store)
	redisClient, err := redis.Connect(ctx, updatedKonf.Redis.URI, updatedKonf.Redis.Password)
	if err != nil {
		logger.Fatal("cannot create redis client", zap.Error(err))
	}
	intentStore := redis.NewIntentStore(redisClient, logger)

	// Mongo Connection (receipt archive)
	var archiver workflow.ReceiptArchiver
	if updatedKonf.Mongo.Enabled {
		mongoClient, merr := mongodb.Connect(ctx, updatedKonf.Mongo.URI)
		if merr != nil {
			logger.Fatal("cannot create mongo client", zap.Error(merr))
		}
		archiver = mongodb.NewReceiptRepository(mongoClient)
	}

	// Kafka producer (downstream fulfilment)
	var publisher workflow.ReceiptPublisher
	if updatedKonf.Kafka.Enabled {
		metrics := kprom.NewMetrics("waypay")
		conf := &kafka.ProducerConfig{
			Brokers: updatedKonf.Kafka.Brokers,
			Name:    updatedKonf.Kafka.ClientName,
			Topic:   updatedKonf.Kafka.Topic,
		}
		producer, perr := kafka.NewReceiptProducer(conf, logger, metrics)
		if perr != nil {
			logger.Fatal("cannot create receipt producer", zap.Error(perr))
		}
		defer producer.Close()
		publisher = producer
	}

	gw := gateway.NewClient(gateway.Config{
		BaseURL: updatedKonf.Gateway.BaseURL,
		APIKey:  updatedKonf.Gateway.APIKey,
		Timeout: time.Duration(updatedKonf.Gateway.TimeoutSeconds) * time.Second,
	}, logger)

	sessionConf := workflow.SessionConfig{
		PollInterval:    time.Duration(updatedKonf.Poller.IntervalSeconds) * time.Second,
		PollMaxAttempts: updatedKonf.Poller.MaxAttempts,
		SuccessClose:    time.Duration(updatedKonf.Session.SuccessCloseSeconds) * time.Second,
		CancelClose:     time.Duration(updatedKonf.Session.CancelCloseSeconds) * time.Second,
	}
	session := workflow.NewSession(sessionConf, logger, gw, intentStore, archiver, publisher)

	intent := models.Intent{
		Kind:     models.FlowKind(*flow),
		TargetID: *target,
		Quantity: *quantity,
		Amount:   *amount,
		Method:   models.PaymentMethod(*method),
		Phone:    *phone,
		Email:    *email,
		FullName: *fullName,
	}

	result, err := session.Submit(ctx, intent)
	if err != nil {
		logger.Fatal("cannot initiate payment", zap.Error(err))
	}

	if !updatedKonf.IsProdMode {
		helpers.PrintStruct(result)
	}

	fmt.Printf("Transaction %s initiated for %s\n", result.TxRef, helpers.FormatAmount(intent.Amount))
	if result.Instructions != "" {
		fmt.Println(result.Instructions)
	}
	if result.PaymentLink != "" {
		fmt.Printf("Complete the payment at: %s\n", result.PaymentLink)
	}

	wait(ctx, logger, session)
}

// wait blocks until the session closes. A sticky polling error triggers one
// manual verification; if that does not resolve the payment the session is
// soft-cancelled so the transaction can still complete on the operator side.
func wait(ctx context.Context, logger *zap.Logger, session *workflow.Session) {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	verified := false
	for {
		select {
		case <-session.Done():
			logger.Info("session closed", zap.String("tx_ref", session.TxRef()))
			return
		case <-ctx.Done():
			logger.Warn("interrupted, abandoning verification", zap.String("tx_ref", session.TxRef()))
			_ = session.RequestClose(true)
			<-session.Done()
			return
		case <-ticker.C:
			err := session.LastError()
			if err == nil || session.State() != workflow.StatePolling {
				continue
			}
			if verified {
				logger.Error("verification unsuccessful", zap.Error(err))
				_ = session.RequestClose(true)
				<-session.Done()
				return
			}
			verified = true
			logger.Warn("retrying via manual verification", zap.Error(err))
			if _, verr := session.ManualVerify(ctx); verr != nil {
				logger.Error("manual verification failed", zap.Error(verr))
			}
		}
	}
}
