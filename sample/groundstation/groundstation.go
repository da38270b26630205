package main

import (
	ghm "github.com/LC-Sat/web-application-online/pkg"
)

// Reads the CanSat telemetry, serves the charts and republishes every
// reading on cansat/groundstation/republish.
func main() {
	ghm.NewExecutor[ghm.Reading]("groundstation", &ghm.MqttProducer[ghm.Reading]{},
		&ghm.HttpServer[ghm.Reading]{ToRawConverter: ghm.ReadingEntry},
		&ghm.MqttConsumer[ghm.Reading]{},
		&ghm.ConsoleConsumer[ghm.Reading]{ToRawConverter: ghm.ReadingEntry},
	).Main()
}
