package main

import (
	"fmt"
	"os"
)

func usage() {
	fmt.Fprintln(os.Stderr, `usage: admin <command> [flags]

commands:
  state       print the current world snapshot
  alerts      list unacknowledged alerts
  summon      send an actor to a room
  override    replace an actor's remaining daily plan
  resolve     acknowledge an alert
  broadcast   record a campus-wide announcement
  overrides   list recent principal interventions`)
	os.Exit(2)
}

func main() {
	if len(os.Args) < 2 {
		usage()
	}
	switch os.Args[1] {
	case "state":
		stateCmd(os.Args[2:])
	case "alerts":
		alertsCmd(os.Args[2:])
	case "summon":
		summonCmd(os.Args[2:])
	case "override":
		overrideCmd(os.Args[2:])
	case "resolve":
		resolveCmd(os.Args[2:])
	case "broadcast":
		broadcastCmd(os.Args[2:])
	case "overrides":
		overridesCmd(os.Args[2:])
	default:
		usage()
	}
}
