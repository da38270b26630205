package ghm

import (
	"crypto/tls"
	"crypto/x509"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"sync"

	MQTT "github.com/eclipse/paho.mqtt.golang"
	"github.com/spf13/cobra"
)

const (
	online  = "online"
	offline = "offline"
)

var ErrNoReading = errors.New("no telemetry received since last reading")

// mqttConfig holds the broker connection flags shared by the MQTT producer
// and consumer.
type mqttConfig struct {
	broker string
	topic  string
	topica string
	user   string
	pass   string
	client string
	ca     string
	trace  bool
}

// setup registers the connection flags. Flags are named after prefix, or
// after fallback when another component already registered the plain
// names, so a producer and a consumer can share one command. A non empty
// topic replaces the default derived from name.
func (mc *mqttConfig) setup(cmd *cobra.Command, name, prefix, fallback, topic string) {
	if prefix == "" && cmd.PersistentFlags().Lookup("mqtt") != nil {
		prefix = fallback
	}
	flag := func(base string) string {
		if prefix == "" {
			return base
		}
		return prefix + "-" + base
	}
	client := fmt.Sprintf("%s-go-cli", name)
	short := "t"
	if prefix != "" {
		client = fmt.Sprintf("%s-go-%s", name, prefix)
		short = ""
	}
	if topic == "" {
		topic = fmt.Sprintf("cansat/%s", name)
		if prefix != "" {
			topic = fmt.Sprintf("cansat/%s/%s", name, prefix)
		}
	}
	fs := cmd.PersistentFlags()
	fs.StringVar(&mc.broker, flag("mqtt"), "tcp://localhost:1883", "MQTT endpoint")
	fs.StringVarP(&mc.topic, flag("topic"), short, topic, "MQTT telemetry topic")
	fs.StringVar(&mc.topica, flag("topic-availability"), topic+"-aval", "MQTT availability topic")
	fs.StringVar(&mc.user, flag("mqtt-user"), "", "MQTT user")
	fs.StringVar(&mc.pass, flag("mqtt-pass"), "", "MQTT password")
	fs.StringVar(&mc.client, flag("mqtt-client"), client, "MQTT client id")
	fs.StringVar(&mc.ca, flag("mqtt-ca"), "", "MQTT CA certificate")
	fs.BoolVar(&mc.trace, flag("trace"), false, "Trace MQTT payloads")
}

// MqttClientOptions builds the client options shared by every MQTT client of
// the ground station. ca is an optional PEM root certificate file.
func MqttClientOptions(broker, clientID, user, pass, ca string) (*MQTT.ClientOptions, error) {
	opts := MQTT.NewClientOptions().AddBroker(broker)
	opts.SetClientID(clientID)
	if user != "" {
		opts.SetUsername(user)
		opts.SetPassword(pass)
	}
	if ca != "" {
		tlscfg, err := caTLSConfig(ca)
		if err != nil {
			return nil, err
		}
		opts.SetTLSConfig(tlscfg)
	}
	return opts, nil
}

// SetMqttLoggers routes the MQTT client warnings and errors to stderr.
func SetMqttLoggers() {
	MQTT.WARN = log.New(os.Stderr, "MQTT WARNING  ", log.Ltime|log.Lshortfile)
	MQTT.CRITICAL = log.New(os.Stderr, "MQTT CRITICAL ", log.Ltime|log.Lshortfile)
	MQTT.ERROR = log.New(os.Stderr, "MQTT ERROR    ", log.Ltime|log.Lshortfile)
}

func (mc *mqttConfig) options(will bool) (*MQTT.ClientOptions, error) {
	opts, err := MqttClientOptions(mc.broker, mc.client, mc.user, mc.pass, mc.ca)
	if err != nil {
		return nil, err
	}
	if will {
		opts.SetWill(mc.topica, offline, 0, true)
	}
	return opts, nil
}

func (mc *mqttConfig) connect(will bool) (MQTT.Client, error) {
	SetMqttLoggers()

	opts, err := mc.options(will)
	if err != nil {
		return nil, err
	}
	client := MQTT.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("mqtt connect %s: %w", mc.broker, token.Error())
	}
	log.Printf("MQTT Connected to %s. Topic is '%s'. Availability topic is '%s'\n", mc.broker, mc.topic, mc.topica)
	return client, nil
}

func caTLSConfig(path string) (*tls.Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	tlscfg := &tls.Config{RootCAs: x509.NewCertPool()}
	if ok := tlscfg.RootCAs.AppendCertsFromPEM(b); !ok {
		return nil, errors.New("failed to parse root certificate")
	}
	return tlscfg, nil
}

// MqttProducer reads telemetry published by the CanSat on the telemetry
// topic. Each Produce returns the latest message received since the previous
// call.
type MqttProducer[R any] struct {
	Decode func([]byte) (R, error)

	cfg    mqttConfig
	client MQTT.Client
	debug  bool

	lock    sync.Mutex
	latest  R
	fresh   bool
	dropped int
}

func (mp *MqttProducer[R]) Setup(cmd *cobra.Command, name string) {
	mp.cfg.setup(cmd, name, "", "subscribe", "")
}

func (mp *MqttProducer[R]) Init(d bool) error {
	mp.debug = d
	if mp.Decode == nil {
		mp.Decode = func(b []byte) (R, error) {
			var r R
			err := json.Unmarshal(b, &r)
			return r, err
		}
	}
	var err error
	if mp.client, err = mp.cfg.connect(false); err != nil {
		return err
	}
	if token := mp.client.Subscribe(mp.cfg.topic, 1, mp.onMessage); token.Wait() && token.Error() != nil {
		return token.Error()
	}
	return nil
}

func (mp *MqttProducer[R]) onMessage(c MQTT.Client, m MQTT.Message) {
	if mp.cfg.trace {
		log.Printf("MQTT Payload [%s]: %s\n", m.Topic(), m.Payload())
	}
	r, err := mp.Decode(m.Payload())
	if err != nil {
		log.Printf("Unable to decode telemetry from %s: %v", m.Topic(), err)
		return
	}
	mp.lock.Lock()
	defer mp.lock.Unlock()
	if mp.fresh {
		mp.dropped++
	}
	mp.latest, mp.fresh = r, true
}

func (mp *MqttProducer[R]) Produce() (R, error) {
	mp.lock.Lock()
	defer mp.lock.Unlock()
	if !mp.fresh {
		var zero R
		return zero, ErrNoReading
	}
	if mp.dropped > 0 && mp.debug {
		log.Printf("Skipped %d intermediate readings", mp.dropped)
	}
	mp.fresh, mp.dropped = false, 0
	return mp.latest, nil
}

func (mp *MqttProducer[R]) Close() error {
	if mp.client != nil {
		mp.client.Unsubscribe(mp.cfg.topic)
		mp.client.Disconnect(3000)
	}
	return nil
}

// MqttConsumer republishes readings as JSON and keeps the availability
// topic up to date.
type MqttConsumer[R any] struct {
	ToJsonConverter func(R) any
	// Prefix names the consumer's flags. When empty the plain names are
	// used, or "republish-*" next to an MqttProducer.
	Prefix string
	// Topic is the default publish topic, cansat/<name> when empty.
	Topic string

	cfg    mqttConfig
	client MQTT.Client
}

func (mc *MqttConsumer[R]) Setup(cmd *cobra.Command, name string) {
	mc.cfg.setup(cmd, name, mc.Prefix, "republish", mc.Topic)
}

func (mc *MqttConsumer[R]) Init(d bool) error {
	if mc.ToJsonConverter == nil {
		mc.ToJsonConverter = func(r R) any { return r }
	}
	var err error
	if mc.client, err = mc.cfg.connect(true); err != nil {
		return err
	}
	return mc.availability(online)
}

func (mc *MqttConsumer[R]) availability(state string) error {
	token := mc.client.Publish(mc.cfg.topica, 0, true, state)
	token.Wait()
	return token.Error()
}

func (mc *MqttConsumer[R]) Consume(v R) error {
	jpl, err := json.Marshal(mc.ToJsonConverter(v))
	if err != nil {
		return err
	}
	if mc.cfg.trace {
		log.Printf("MQTT Payload: %s\n", jpl)
	}
	if token := mc.client.Publish(mc.cfg.topic, 1, false, jpl); token.Wait() && token.Error() != nil {
		return token.Error()
	}
	return nil
}

func (mc *MqttConsumer[R]) Close() error {
	if mc.client == nil {
		return nil
	}
	err := mc.availability(offline)
	log.Println("Disconnecting")
	mc.client.Disconnect(3000)
	return err
}
