package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
)

// Factory arma el TeamService de un guild (storage, workspace, métricas).
type Factory func(guildID string) (*TeamService, error)

// Directory mantiene un TeamService por guild. Con GUILD_ID configurado
// sólo hay uno; sin él se crea uno por cada guild que use el bot.
type Directory struct {
	mu       sync.Mutex
	factory  Factory
	services map[string]*TeamService
}

func NewDirectory(f Factory) *Directory {
	return &Directory{factory: f, services: map[string]*TeamService{}}
}

// For devuelve el servicio del guild, creándolo y restaurándolo la primera vez.
// Si el restore falla el servicio queda registrado y reintenta en el próximo uso.
func (d *Directory) For(ctx context.Context, guildID string) (*TeamService, error) {
	if guildID == "" {
		return nil, errors.New("directory: empty guild id")
	}

	d.mu.Lock()
	s, ok := d.services[guildID]
	if !ok {
		var err error
		s, err = d.factory(guildID)
		if err != nil {
			d.mu.Unlock()
			return nil, fmt.Errorf("build team service for guild %s: %w", guildID, err)
		}
		d.services[guildID] = s
	}
	d.mu.Unlock()

	if err := s.Restore(ctx); err != nil {
		return s, err
	}
	return s, nil
}

// Guilds lista los guilds con servicio creado, ordenados.
func (d *Directory) Guilds() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]string, 0, len(d.services))
	for id := range d.services {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// FlushAll escribe el snapshot de todos los guilds; junta los errores.
func (d *Directory) FlushAll() error {
	d.mu.Lock()
	services := make([]*TeamService, 0, len(d.services))
	for _, s := range d.services {
		services = append(services, s)
	}
	d.mu.Unlock()

	var errs []error
	for _, s := range services {
		if err := s.Flush(); err != nil {
			errs = append(errs, fmt.Errorf("guild %s: %w", s.GuildID(), err))
		}
	}
	return errors.Join(errs...)
}
