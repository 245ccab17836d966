package cli

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/runnerr0/focuslog/internal/server"
)

// Execute implements the go-flags Commander interface for ServeCommand.
func (c *ServeCommand) Execute(args []string) error {
	s, err := openSession(c.globals)
	if err != nil {
		return err
	}
	defer s.Close()

	return c.executeWithSession(s)
}

func (c *ServeCommand) executeWithSession(s *session) error {
	cfg, err := c.serverConfig(s)
	if err != nil {
		return err
	}
	return server.NewWebAPI(cfg).Start(s.ctx)
}

// serverConfig resolves the listen address (config, then .env and
// FOCUSLOG_* variables, then flags) and wires the API to the session store.
func (c *ServeCommand) serverConfig(s *session) (server.Config, error) {
	logger := zerolog.Ctx(s.ctx)

	if c.EnvFile != "" {
		if err := godotenv.Load(c.EnvFile); err != nil {
			if !errors.Is(err, fs.ErrNotExist) {
				return server.Config{}, fmt.Errorf("load %s: %w", c.EnvFile, err)
			}
			logger.Debug().Str("file", c.EnvFile).Msg("no env file")
		}
	}
	if err := s.cfg.ApplyEnv(); err != nil {
		return server.Config{}, err
	}
	if c.Host != "" {
		s.cfg.Server.Host = c.Host
	}
	if c.Port != 0 {
		if c.Port < 0 || c.Port > 65535 {
			return server.Config{}, fmt.Errorf("invalid --port %d", c.Port)
		}
		s.cfg.Server.Port = c.Port
	}

	if c.LogLevel != "" {
		lvl, err := zerolog.ParseLevel(c.LogLevel)
		if err != nil {
			return server.Config{}, fmt.Errorf("invalid --log-level: %w", err)
		}
		l := logger.Level(lvl)
		logger = &l
		s.ctx = logger.WithContext(s.ctx)
	}

	engine := s.engine()
	return server.Config{
		Addr:            s.cfg.Addr(),
		ShutdownTimeout: s.cfg.ShutdownTimeout(),
		MaxRequestSize:  s.cfg.Server.MaxRequestSize,
		DefaultUser:     s.userID,
		Dependencies: server.Dependencies{
			Recorder:  s.recorder(),
			Analytics: engine,
			Reports:   s.reports(),
			Logger:    *logger,
		},
	}, nil
}
