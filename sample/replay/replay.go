package main

import (
	ghm "github.com/LC-Sat/web-application-online/pkg"
)

// Publishes a recorded flight on the broker, as the CanSat would, on the
// topic the groundstation subscribes to.
func main() {
	ghm.NewExecutor[ghm.Reading]("replay", &ghm.ReplayProducer{},
		&ghm.MqttConsumer[ghm.Reading]{Topic: "cansat/groundstation"},
		&ghm.ConsoleConsumer[ghm.Reading]{ToRawConverter: ghm.ReadingEntry},
	).Main()
}
