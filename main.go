// Copyright (c) 2026 TTBT Enterprises LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/ttbt-io/crease/scoring"
)

var (
	serverURL  = flag.String("server", "", "REST API base URL (overrides CREASE_SERVER_URL)")
	socketURL  = flag.String("socket", "", "Realtime endpoint URL (overrides CREASE_SOCKET_URL)")
	token      = flag.String("token", "", "Access token (overrides CREASE_TOKEN)")
	matchID    = flag.String("match", "", "Match ID to score (REQUIRED)")
	roomID     = flag.String("room", "", "Event room ID, when it differs from the match ID")
	overSocket = flag.Bool("over-socket", false, "Submit deliveries via the realtime channel instead of REST")
	watchOnly  = flag.Bool("watch", false, "Spectate: print live updates without scoring")
)

// main runs the terminal scorer: one scoring session against one match.
func main() {
	flag.Parse()

	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("Could not load .env file: %v", err)
	}

	cfg, err := scoring.LoadConfig()
	if err != nil {
		log.Fatalf("Config error: %v", err)
	}
	if *serverURL != "" {
		cfg.ServerURL = *serverURL
	}
	if *socketURL != "" {
		cfg.SocketURL = *socketURL
	}
	if *token != "" {
		cfg.Token = *token
	}
	if *matchID == "" {
		log.Fatal("--match is required")
	}

	tokens := scoring.StaticToken(cfg.Token)
	api := scoring.NewAPIClient(cfg.ServerURL, cfg.RequestTimeout, tokens)

	conns := scoring.NewConnManager(cfg, tokens)
	conn, err := conns.Acquire()
	if err != nil {
		log.Fatalf("Realtime connection failed: %v", err)
	}
	defer conns.Release()

	coord := scoring.NewCoordinator(scoring.CoordinatorOptions{
		MatchID:         *matchID,
		RoomID:          *roomID,
		API:             api,
		Realtime:        conn,
		ScoreOverSocket: *overSocket,
		RequestTimeout:  cfg.RequestTimeout,
		OnChange:        printView,
	})
	defer coord.Close()

	ctx, cancel := context.WithTimeout(context.Background(), cfg.RequestTimeout)
	match, err := api.Match(ctx, *matchID)
	cancel()
	if err != nil {
		log.Fatalf("Failed to load match %s: %v", *matchID, err)
	}

	ctx, cancel = context.WithTimeout(context.Background(), cfg.RequestTimeout)
	err = coord.Seed(ctx)
	cancel()
	if err != nil {
		log.Fatalf("Failed to load live innings: %v", err)
	}

	if *watchOnly {
		log.Printf("Watching match %s. Ctrl-C to quit.", *matchID)
		select {}
	}

	room := *roomID
	if room == "" {
		room = *matchID
	}
	runPrompt(coord, api, conn, match, *matchID, room)
}

const promptHelp = `Commands:
  0-7              record runs off the bat
  wd [extras]      wide (default 1 extra)
  nb [extras]      no-ball (default 1 extra)
  b <runs>         byes
  lb <runs>        leg byes
  w <type> [who] [fielder]   wicket (bowled, caught, lbw, run_out, ...)
  undo             revert the last delivery (server-decided)
  striker <name>   select striker         nonstriker <name>  select non-striker
  bowler <name>    select bowler
  chat <text>      send a chat line       react <kind>       send a reaction
  score            print the current view
  end              end the innings        quit               exit`

func runPrompt(coord *scoring.Coordinator, api *scoring.APIClient, conn *scoring.Conn, match *scoring.Match, matchID, room string) {
	fmt.Println(promptHelp)
	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			return
		}
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}
		cmd, args := fields[0], fields[1:]

		var err error
		switch cmd {
		case "quit", "exit":
			return
		case "help":
			fmt.Println(promptHelp)
		case "score":
			printView(coord.Snapshot())
		case "undo":
			err = coord.Undo()
		case "striker", "nonstriker", "bowler":
			err = selectActor(coord, match, cmd, strings.Join(args, " "))
		case "wd", "nb":
			extras := 1
			if len(args) > 0 {
				extras, err = strconv.Atoi(args[0])
				if err != nil {
					break
				}
			}
			outcome := scoring.OutcomeWide
			if cmd == "nb" {
				outcome = scoring.OutcomeNoBall
			}
			err = coord.Record(scoring.Delivery{Outcome: outcome, ExtraRuns: extras})
		case "b", "lb":
			if len(args) == 0 {
				err = fmt.Errorf("usage: %s <runs>", cmd)
				break
			}
			var runs int
			runs, err = strconv.Atoi(args[0])
			if err != nil {
				break
			}
			outcome := scoring.OutcomeBye
			if cmd == "lb" {
				outcome = scoring.OutcomeLegBye
			}
			err = coord.Record(scoring.Delivery{Outcome: outcome, Runs: runs})
		case "w":
			err = recordWicket(coord, match, args)
		case "chat":
			// Room traffic goes around the coordinator entirely.
			err = conn.SendChat(room, strings.Join(args, " "))
		case "react":
			if len(args) == 0 {
				err = fmt.Errorf("usage: react <six|four|wicket|appeal|cheer|clap>")
				break
			}
			err = conn.SendReaction(room, args[0])
		case "end":
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			var status string
			status, err = api.EndInnings(ctx, matchID)
			cancel()
			if err == nil {
				fmt.Printf("Innings ended; match status: %s\n", status)
			}
		default:
			var runs int
			runs, err = strconv.Atoi(cmd)
			if err != nil {
				err = fmt.Errorf("unknown command %q (try help)", cmd)
				break
			}
			err = coord.Record(scoring.Delivery{Outcome: scoring.OutcomeNormal, Runs: runs})
		}
		if err != nil {
			fmt.Printf("! %v\n", err)
		}
	}
}

func selectActor(coord *scoring.Coordinator, match *scoring.Match, role, query string) error {
	v := coord.Snapshot()
	batting, fielding := match.Rosters(v.Innings.BattingTeam)
	team := batting
	r := scoring.RoleStriker
	switch role {
	case "nonstriker":
		r = scoring.RoleNonStriker
	case "bowler":
		r = scoring.RoleBowler
		team = fielding
	}
	p, err := team.FindPlayer(query)
	if err != nil {
		return err
	}
	if err := coord.SelectActor(r, p.ID); err != nil {
		return err
	}
	fmt.Printf("%s: %s\n", role, p.Name)
	return nil
}

func recordWicket(coord *scoring.Coordinator, match *scoring.Match, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: w <dismissal> [dismissed-name] [fielder-name]")
	}
	d := scoring.Delivery{Outcome: scoring.OutcomeWicket, Wicket: true, Dismissal: scoring.Dismissal(args[0])}
	v := coord.Snapshot()
	batting, fielding := match.Rosters(v.Innings.BattingTeam)
	if len(args) > 1 {
		p, err := batting.FindPlayer(args[1])
		if err != nil {
			return err
		}
		d.DismissedID = p.ID
	}
	if len(args) > 2 {
		p, err := fielding.FindPlayer(args[2])
		if err != nil {
			return err
		}
		d.FielderID = p.ID
	}
	return coord.Record(d)
}

func printView(v scoring.View) {
	in := v.Innings
	line := fmt.Sprintf("%s  CRR %s", in.Score(), scoring.Fixed2(in.RunRate()))
	if v.RunsNeeded > 0 {
		line += fmt.Sprintf("  need %d", v.RunsNeeded)
	}
	if len(v.OverBalls) > 0 {
		labels := make([]string, len(v.OverBalls))
		for i, b := range v.OverBalls {
			labels[i] = b.Label
		}
		line += "  this over: " + strings.Join(labels, " ")
	}
	fmt.Println(line)

	switch v.Phase {
	case scoring.PhaseAwaitingActors:
		fmt.Printf("  select: %v\n", v.Missing)
	case scoring.PhaseInningsComplete:
		fmt.Println("  innings complete")
	case scoring.PhaseMatchComplete:
		if r := v.MatchResult; r != nil && r.WinnerName != "" {
			fmt.Printf("  match complete: %s won %s\n", r.WinnerName, r.WinBy)
		} else {
			fmt.Println("  match complete")
		}
	}
	if v.Err != nil {
		fmt.Printf("  last submission failed: %v (resubmit to retry)\n", v.Err)
	}
}
