// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package app

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/idlewatch/internal/config"
	"github.com/jeranaias/idlewatch/internal/idle"
)

// Run hosts sessions in the terminal until the user quits. When
// configPath is non-empty the file is watched and a changed policy is
// applied to the next session.
func Run(ctx context.Context, opts Options, configPath string) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	m, err := New(ctx, opts)
	if err != nil {
		return err
	}
	defer m.Close()

	p := tea.NewProgram(
		m,
		tea.WithContext(ctx),
		tea.WithAltScreen(),
		tea.WithMouseAllMotion(),
		tea.WithReportFocus(),
	)

	if configPath != "" {
		go func() {
			err := config.Watch(ctx, configPath, config.DefaultWatchDebounce, func(cfg *config.Config, err error) {
				if err == nil {
					m.host.logger.Debug("config reloaded", "path", configPath, "config", cfg.String())
					var pol idle.Policy
					if pol, err = cfg.Policy(); err == nil {
						p.Send(PolicyMsg{Policy: pol})
						return
					}
				}
				p.Send(ConfigErrorMsg{Err: err})
			})
			if err != nil {
				m.host.logger.Warn("config watch stopped", "path", configPath, "error", err)
			}
		}()
	}

	if _, err := p.Run(); err != nil && ctx.Err() == nil {
		return fmt.Errorf("running terminal host: %w", err)
	}
	return nil
}
