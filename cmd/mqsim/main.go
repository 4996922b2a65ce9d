package main

import (
	"flag"
	"fmt"
	"net/http"
	"os"

	"github.com/maquettehq/mqbridge/internal/sim"
)

func main() {
	listen := flag.String("listen", "127.0.0.1:8765", "address to serve the socket endpoint on")
	closeAfter := flag.Int("close-after", 0, "drop each connection after N replies (0 keeps them open)")
	flag.Parse()

	srv := sim.NewServer(sim.NewScene(), *closeAfter)
	fmt.Fprintf(os.Stderr, "mqsim: listening on ws://%s\n", *listen)
	if err := http.ListenAndServe(*listen, srv); err != nil {
		fmt.Fprintf(os.Stderr, "mqsim: %v\n", err)
		os.Exit(1)
	}
}
