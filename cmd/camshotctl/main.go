package main

import (
	"flag"
	"fmt"
	"log"
	"net"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"github.com/abihf/camshot/config"
	"github.com/abihf/camshot/protocol"
	"github.com/google/uuid"
)

var (
	socket   = flag.String("socket", "", "daemon socket (default from config)")
	portrait = flag.Bool("portrait", false, "turn landscape frames upright for a portrait display")
)

func main() {
	flag.Usage = help
	flag.Parse()

	action, params := parseArgs(flag.Args())

	addr := *socket
	if addr == "" {
		addr = config.Load().Socket
	}
	conn, err := net.Dial("unix", addr)
	if err != nil {
		log.Fatal(err)
	}
	defer conn.Close()

	if err := protocol.WriteReq(conn, uuid.NewString(), action, params); err != nil {
		log.Fatal(err)
	}

	res, err := protocol.ReadRes(conn)
	if err != nil {
		log.Fatal(err)
	}
	if res.Status != protocol.StatusSuccess {
		log.Fatalf("%s: %s", action, res.Error)
	}

	keys := make([]string, 0, len(res.Extras))
	for k := range res.Extras {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Printf("%s: %s\n", k, res.Extras[k])
	}
}

func parseArgs(args []string) (protocol.Action, map[string]string) {
	if len(args) == 0 {
		help()
	}
	switch args[0] {
	case "open":
		facing := "back"
		if len(args) > 1 {
			facing = args[1]
		}
		return protocol.ActionOpen, map[string]string{"facing": facing}
	case "switch":
		return protocol.ActionSwitch, nil
	case "snap":
		params := map[string]string{"portrait": strconv.FormatBool(*portrait)}
		if len(args) > 1 {
			out, err := filepath.Abs(args[1])
			if err != nil {
				log.Fatal(err)
			}
			params["output"] = out
		}
		return protocol.ActionSnap, params
	case "close":
		return protocol.ActionClose, nil
	}
	help()
	return "", nil
}

func help() {
	fmt.Fprintf(os.Stderr, "Usage: %s [-socket path] [-portrait] <open [front|back]|switch|snap [output.jpg]|close>\n", os.Args[0])
	os.Exit(2)
}
