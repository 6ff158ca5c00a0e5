package snapshot

import (
	"context"
	"strconv"
)

// Postgres dumps with pg_dump and restores with psql, passing the password
// through PGPASSWORD. Dumps carry DROP and CREATE statements so a restore
// replaces whatever tables exist.
type Postgres struct {
	creds  Credentials
	tables []string
	tools  toolbox
}

func NewPostgres(creds Credentials, tables ...string) *Postgres {
	return &Postgres{creds: creds, tables: tables, tools: defaultToolbox()}
}

func (p *Postgres) connArgs() []string {
	args := []string{"-h", p.creds.Host}
	if p.creds.Port != 0 {
		args = append(args, "-p", strconv.Itoa(p.creds.Port))
	}
	return append(args, "-U", p.creds.User)
}

func (p *Postgres) env() []string {
	if p.creds.Password == "" {
		return nil
	}
	return []string{"PGPASSWORD=" + p.creds.Password}
}

func (p *Postgres) Export(ctx context.Context, path string) error {
	bin, err := p.tools.find("pg_dump")
	if err != nil {
		return err
	}
	args := append(p.connArgs(), "--clean", "--if-exists", "--no-owner")
	for _, t := range p.tables {
		args = append(args, "-t", t)
	}
	args = append(args, p.creds.Database)
	return p.tools.dumpTo(ctx, path, Command{Name: bin, Args: args, Env: p.env()})
}

func (p *Postgres) Import(ctx context.Context, path string) error {
	bin, err := p.tools.find("psql")
	if err != nil {
		return err
	}
	args := append(p.connArgs(), "-q", "-v", "ON_ERROR_STOP=1", "-d", p.creds.Database)
	return p.tools.loadFrom(ctx, path, Command{Name: bin, Args: args, Env: p.env()})
}
