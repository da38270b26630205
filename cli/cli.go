package main

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"os/signal"
	"sort"
	"strings"

	ghm "github.com/LC-Sat/web-application-online/pkg"
	MQTT "github.com/eclipse/paho.mqtt.golang"
	"github.com/spf13/cobra"
)

type sniffer struct {
	mqtt     string
	user     string
	pass     string
	clientID string
	ca       string
	topic    string
	raw      bool
}

// format prints telemetry frames as sorted key=value pairs and anything
// else verbatim.
func (s *sniffer) format(m MQTT.Message) string {
	var r ghm.Reading
	if s.raw || json.Unmarshal(m.Payload(), &r) != nil {
		return fmt.Sprintf("[%s] %s", m.Topic(), m.Payload())
	}
	keys := make([]string, 0, len(r))
	for k := range r {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%s=%g", k, r[k])
	}
	return fmt.Sprintf("[%s] %s", m.Topic(), strings.Join(parts, " "))
}

func (s *sniffer) run(cmd *cobra.Command, args []string) error {
	ghm.SetMqttLoggers()

	opts, err := ghm.MqttClientOptions(s.mqtt, s.clientID, s.user, s.pass, s.ca)
	if err != nil {
		return err
	}

	client := MQTT.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return fmt.Errorf("MQTT Connection error: %w", token.Error())
	}
	defer client.Disconnect(7)

	token := client.Subscribe(s.topic, 0, func(c MQTT.Client, m MQTT.Message) {
		log.Println(s.format(m))
	})
	if token.Wait() && token.Error() != nil {
		return token.Error()
	}
	waitForCtrlC()
	return nil
}

func main() {
	s := &sniffer{}
	cmd := &cobra.Command{
		Use:   "cansat-sniff",
		Short: "Log telemetry published on the MQTT broker",
		RunE:  s.run,
	}
	cmd.Flags().StringVar(&s.mqtt, "mqtt", "tcp://localhost:1883", "MQTT endpoint")
	cmd.Flags().StringVar(&s.user, "mqtt-user", "", "MQTT user")
	cmd.Flags().StringVar(&s.pass, "mqtt-pass", "", "MQTT password")
	cmd.Flags().StringVar(&s.clientID, "mqtt-client", "cansat-sniff", "MQTT client id")
	cmd.Flags().StringVar(&s.ca, "mqtt-ca", "", "MQTT CA certificate")
	cmd.Flags().StringVarP(&s.topic, "topic", "t", "cansat/#", "Topic filter")
	cmd.Flags().BoolVar(&s.raw, "raw", false, "Do not decode telemetry")

	log.SetFlags(log.Ltime | log.Ldate)
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func waitForCtrlC() {
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, os.Interrupt)
	<-ch
}
