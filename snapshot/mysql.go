package snapshot

import (
	"context"
	"strconv"
)

// MySQL dumps with mysqldump and restores with the mysql client. The
// password travels in MYSQL_PWD so it never shows up in the process list.
type MySQL struct {
	creds  Credentials
	tables []string
	tools  toolbox
}

func NewMySQL(creds Credentials, tables ...string) *MySQL {
	return &MySQL{creds: creds, tables: tables, tools: defaultToolbox()}
}

func (m *MySQL) connArgs() []string {
	args := []string{"-u", m.creds.User}
	if m.creds.Socket != "" {
		args = append(args, "-S", m.creds.Socket)
	} else {
		args = append(args, "-h", m.creds.Host)
		if m.creds.Port != 0 {
			args = append(args, "-P", strconv.Itoa(m.creds.Port))
		}
	}
	return args
}

func (m *MySQL) env() []string {
	if m.creds.Password == "" {
		return nil
	}
	return []string{"MYSQL_PWD=" + m.creds.Password}
}

func (m *MySQL) Export(ctx context.Context, path string) error {
	bin, err := m.tools.find("mysqldump", "mysqldump5")
	if err != nil {
		return err
	}
	args := append(m.connArgs(), m.creds.Database)
	args = append(args, m.tables...)
	return m.tools.dumpTo(ctx, path, Command{Name: bin, Args: args, Env: m.env()})
}

func (m *MySQL) Import(ctx context.Context, path string) error {
	bin, err := m.tools.find("mysql", "mysql5")
	if err != nil {
		return err
	}
	args := append(m.connArgs(), m.creds.Database)
	return m.tools.loadFrom(ctx, path, Command{Name: bin, Args: args, Env: m.env()})
}
