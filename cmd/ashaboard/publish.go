package main

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/ashaboard/ashaboard/internal/sensors"
	"github.com/ashaboard/ashaboard/pkg/water"
)

type publishOpts struct {
	configPath string
	broker     string
	clientID   string
	topic      string
	sourceID   string
	reading    water.Reading
	condition  string
	location   string
}

func newPublishCmd() *cobra.Command {
	var opts publishOpts

	cmd := &cobra.Command{
		Use:   "publish",
		Short: "Publish a water reading to the sensor broker",
		Long: `Sends a reading over MQTT on the source's readings topic, the same way a
field sensor does. A running ashaboardd subscribed to the broker applies it.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPublish(cmd.OutOrStdout(), opts)
		},
	}

	cmd.Flags().StringVar(&opts.configPath, "config", "", "Config file (default: nearest .ashaboard/config.yaml)")
	cmd.Flags().StringVar(&opts.broker, "broker", "", "MQTT broker URL (default: sensors.broker from config)")
	cmd.Flags().StringVar(&opts.clientID, "client-id", "ashaboard-cli", "MQTT client id")
	cmd.Flags().StringVar(&opts.topic, "topic", "", "Topic pattern with a + for the source id (default: sensors.topic from config)")
	cmd.Flags().StringVar(&opts.sourceID, "source", "", "Water source id (required)")
	cmd.Flags().Float64Var(&opts.reading.Turbidity, "turbidity", 0, "Turbidity in NTU (required)")
	cmd.Flags().Float64Var(&opts.reading.PH, "ph", 0, "pH value (required)")
	cmd.Flags().Float64Var(&opts.reading.Temperature, "temperature", 25, "Water temperature in degrees Celsius")
	cmd.Flags().StringVar(&opts.condition, "condition", "", "Visual condition: clean, muddy or stagnant")
	cmd.Flags().StringVar(&opts.location, "location", "", "Where the sample was taken")
	_ = cmd.MarkFlagRequired("source")
	_ = cmd.MarkFlagRequired("turbidity")
	_ = cmd.MarkFlagRequired("ph")

	return cmd
}

func runPublish(w io.Writer, opts publishOpts) error {
	cfg, err := loadConfig(opts.configPath)
	if err != nil {
		return err
	}
	broker := firstNonEmpty(opts.broker, cfg.Sensors.Broker)
	if broker == "" {
		return fmt.Errorf("no broker: pass --broker or set sensors.broker")
	}

	r := opts.reading
	c, err := water.ParseCondition(opts.condition)
	if err != nil {
		return fmt.Errorf("invalid reading: %w", err)
	}
	r.Condition = c
	r.Location = opts.location
	r.TakenAt = time.Now().UTC()
	if err := r.Validate(); err != nil {
		return fmt.Errorf("invalid reading: %w", err)
	}

	pub, err := sensors.NewPublisher(broker, opts.clientID, firstNonEmpty(opts.topic, cfg.Sensors.Topic))
	if err != nil {
		return err
	}
	defer pub.Close()

	if err := pub.Publish(opts.sourceID, r); err != nil {
		return err
	}
	fmt.Fprintf(w, "published to %s (%s)\n", pub.Topic(opts.sourceID), water.Classify(r).Overall)
	return nil
}
