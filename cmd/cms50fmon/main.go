package main

import (
	"context"
	"flag"
	"log"
	"os"
	"strings"

	"github.com/robotalks/cms50f.go/pkg/cms50f"
	"github.com/robotalks/cms50f.go/pkg/framework"
	"github.com/robotalks/cms50f.go/pkg/sink"
	"github.com/robotalks/cms50f.go/pkg/sink/mqtt"
)

var (
	mqttURL = "mqtt://localhost:1883/cms50f/"
)

func init() {
	if val := os.Getenv("CMS50F_MQTT_URL"); val != "" {
		mqttURL = val
	}
	flag.StringVar(&mqttURL, "mqtt", mqttURL, "MQTT broker URL.")
}

func main() {
	flag.Parse()
	log.SetFlags(log.Lmicroseconds)

	client, err := mqtt.Monitor(mqttURL, func(topic string, s cms50f.Sample, err error) {
		if err != nil {
			log.Printf("%s: bad message: %v", topic, err)
			return
		}
		log.Printf("%s: %s", topic, strings.TrimSuffix(sink.FormatLine(s), "\n"))
	})
	if err != nil {
		log.Fatalln(err)
	}
	ctx, cancel := framework.HandleSignals(context.Background())
	defer cancel()
	<-ctx.Done()
	client.Disconnect(250)
}
