package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/codesurge/hackathon/internal/config"
	"github.com/codesurge/hackathon/internal/services"
	"github.com/codesurge/hackathon/internal/store"
)

// problemFile is the layout of the seed file:
//
//	problems:
//	  - title: Smart Parking
//	    track: iot
//	    description: ...
type problemFile struct {
	Problems []services.ProblemRequest `yaml:"problems"`
}

func loadProblems(path string) ([]services.ProblemRequest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var f problemFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if len(f.Problems) == 0 {
		return nil, fmt.Errorf("%s contains no problems", path)
	}
	return f.Problems, nil
}

func main() {
	file := flag.String("file", "problems.yaml", "YAML file with the problems to seed")
	configPath := flag.String("config", os.Getenv("CONFIG_PATH"), "config file")
	flag.Parse()

	if err := run(*file, *configPath); err != nil {
		log.Fatal(err)
	}
}

// run seeds the problems in file. It returns instead of exiting so the
// store is always closed.
func run(file, configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	problems, err := loadProblems(file)
	if err != nil {
		return fmt.Errorf("failed to read problems: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	st, err := store.Open(ctx, &cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer st.Close(ctx)

	fmt.Println("Connected to database successfully!")

	created, err := services.NewProblemService(st).Seed(ctx, problems)
	if err != nil {
		return fmt.Errorf("seeding stopped after %d problems: %w", created, err)
	}
	fmt.Printf("Seeded %d new problems (%d already present)\n", created, len(problems)-created)
	return nil
}
