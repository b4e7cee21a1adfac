package main

import (
	"flag"
	"log"
	"os"

	"starlanes/internal/game"
	"starlanes/internal/server"
)

func main() {
	addr := flag.String("addr", ":8080", "listen address")
	mapSize := flag.String("map", "medium", "starmap size preset (small, medium, large, massive)")
	mapFile := flag.String("mapFile", "", "predefined starmap file, overrides -map")
	settingsFile := flag.String("settings", "", "settings file with key=value lines")
	bots := flag.Int("bots", 0, "number of bot-commanded teams (0-2)")
	flag.Parse()

	settings := game.DefaultGameSettings()
	if *settingsFile != "" {
		f, err := os.Open(*settingsFile)
		if err != nil {
			log.Fatalf("Could not open settings file: %v", err)
		}
		err = settings.Import(f)
		f.Close()
		if err != nil {
			log.Fatalf("Could not load settings: %v", err)
		}
	}

	world := game.NewWorld(true, settings, nil)

	if *mapFile != "" {
		f, err := os.Open(*mapFile)
		if err != nil {
			log.Fatalf("Could not open starmap file: %v", err)
		}
		starmap, err := game.LoadStarmap(f)
		f.Close()
		if err != nil {
			log.Fatalf("Could not load starmap: %v", err)
		}
		if err := world.LoadStarmap(starmap); err != nil {
			log.Fatalf("Could not install starmap: %v", err)
		}
	} else {
		if err := world.GenerateAndLoad(game.MapSize(*mapSize)); err != nil {
			log.Fatalf("Could not generate starmap: %v", err)
		}
	}

	for i := 0; i < *bots && i < 2; i++ {
		// Bots take the second team first so a single human keeps team 0.
		world.EnableBot(1 - i)
	}

	srv := server.NewServer(world)

	log.Println("Starting Starlanes server...")
	if err := srv.Start(*addr); err != nil {
		log.Fatal("Server failed to start:", err)
	}
}
