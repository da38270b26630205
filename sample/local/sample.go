package main

import (
	ghm "github.com/LC-Sat/web-application-online/pkg"
	"github.com/LC-Sat/web-application-online/sample/sample"
)

func main() {
	ghm.NewExecutor[ghm.Reading]("cansat-sim", &sample.DescentProducer{},
		&ghm.HttpServer[ghm.Reading]{ToRawConverter: ghm.ReadingEntry},
		&ghm.ConsoleConsumer[ghm.Reading]{ToRawConverter: ghm.ReadingEntry},
	).Main()
}
