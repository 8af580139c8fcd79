package kafka

import (
	// Go Internal Packages
	"context"
	"encoding/json"
	"fmt"

	// Local Packages
	models "waypay/models"

	// External Packages
	"github.com/twmb/franz-go/pkg/kgo"
	"github.com/twmb/franz-go/plugin/kprom"
	"go.uber.org/zap"
)

type ProducerConfig struct {
	Brokers []string
	Name    string
	Topic   string
}

// Producer publishes confirmed-payment receipts for downstream fulfilment
// (ticket e-mail, QR issuance, vote tally). Publishing is best-effort from
// the payment session's point of view.
type Producer struct {
	Client *kgo.Client
	Config *ProducerConfig
	Logger *zap.Logger
}

// NewReceiptProducer creates a producer for the confirmed-payments topic.
func NewReceiptProducer(conf *ProducerConfig, logger *zap.Logger, metrics *kprom.Metrics) (*Producer, error) {
	opts := []kgo.Opt{
		kgo.SeedBrokers(conf.Brokers...), // Connects to Kafka brokers
		kgo.ClientID(conf.Name),          // Names this client in broker logs
		kgo.WithHooks(metrics),           // Attaches monitoring hooks
		kgo.DefaultProduceTopic(conf.Topic),
	}

	client, err := kgo.NewClient(opts...)
	if err != nil || client == nil {
		return nil, err
	}

	return &Producer{Client: client, Config: conf, Logger: logger}, nil
}

// Publish produces one receipt, keyed by txRef so log compaction keeps the
// latest record per transaction. Blocks until the broker acks or ctx ends.
func (p *Producer) Publish(ctx context.Context, receipt models.Receipt) error {
	value, err := json.Marshal(receipt)
	if err != nil {
		return fmt.Errorf("failed to marshal receipt: %v", err)
	}

	record := &kgo.Record{
		Key:   []byte(receipt.TxRef),
		Value: value,
		Topic: p.Config.Topic,
	}

	if err = p.Client.ProduceSync(ctx, record).FirstErr(); err != nil {
		return fmt.Errorf("failed to produce receipt: %v", err)
	}

	p.Logger.Info("published receipt",
		zap.String("tx_ref", receipt.TxRef), zap.String("topic", p.Config.Topic))
	return nil
}

// Close flushes buffered records and releases the client.
func (p *Producer) Close() {
	p.Client.Close()
}
