package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/diegocamara89/dcyber-bot/internal/db"
	"github.com/diegocamara89/dcyber-bot/internal/lembretes"
	"github.com/diegocamara89/dcyber-bot/internal/usuarios"
)

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339})

	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	_ = godotenv.Load()

	ctx := context.Background()

	dsn := strings.TrimSpace(os.Getenv("DB_DSN"))
	if dsn == "" {
		dsn = strings.TrimSpace(os.Getenv("DATABASE_URL"))
	}
	if dsn == "" {
		log.Fatal().Msg("defina DB_DSN ou DATABASE_URL")
	}

	pool, err := db.NewPool(ctx, dsn, 1, time.Second)
	if err != nil {
		log.Fatal().Err(err).Msg("não foi possível conectar ao banco")
	}
	defer pool.Close()

	users := usuarios.NewService(usuarios.NewRepository(pool))

	cmd := os.Args[1]
	args := os.Args[2:]

	switch cmd {
	case "migrate":
		err = db.EnsureSchema(ctx, pool)
		if err == nil {
			fmt.Println("schema aplicado")
		}
	case "usuarios":
		err = runUsuarios(ctx, users, args)
	case "dpc":
		err = runDPC(ctx, users, args)
	case "admin":
		err = runAdmin(ctx, users, args)
	case "aprovar":
		err = runAprovar(ctx, users, args)
	case "lembretes-pendentes":
		err = runLembretesPendentes(ctx, pool)
	default:
		usage()
		os.Exit(1)
	}
	if err != nil {
		log.Fatal().Err(err).Str("cmd", cmd).Msg("comando falhou")
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "botctl")
	fmt.Fprintln(os.Stderr, "uso:")
	fmt.Fprintln(os.Stderr, "  botctl migrate")
	fmt.Fprintln(os.Stderr, "  botctl usuarios [--nivel pendente|user|dpc|admin]")
	fmt.Fprintln(os.Stderr, "  botctl dpc --id 123456")
	fmt.Fprintln(os.Stderr, "  botctl admin --id 123456")
	fmt.Fprintln(os.Stderr, "  botctl aprovar --id 123456")
	fmt.Fprintln(os.Stderr, "  botctl lembretes-pendentes")
}

func parseID(name string, args []string) (int64, error) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	id := fs.Int64("id", 0, "id do usuário no Telegram")
	if err := fs.Parse(args); err != nil {
		return 0, err
	}
	if *id <= 0 {
		return 0, errors.New("--id obrigatório")
	}
	return *id, nil
}

func runUsuarios(ctx context.Context, users *usuarios.Service, args []string) error {
	fs := flag.NewFlagSet("usuarios", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	nivelRaw := fs.String("nivel", "", "filtra por nível")
	if err := fs.Parse(args); err != nil {
		return err
	}

	var (
		lista []usuarios.Usuario
		err   error
	)
	switch {
	case *nivelRaw == "":
		lista, err = users.Todos(ctx)
	default:
		nivel, perr := usuarios.ParseNivel(*nivelRaw)
		if perr != nil {
			return perr
		}
		if nivel == usuarios.NivelPendente {
			lista, err = users.Pendentes(ctx)
		} else {
			lista, err = users.PorNivel(ctx, nivel)
		}
	}
	if err != nil {
		return err
	}

	if len(lista) == 0 {
		fmt.Println("nenhum usuário encontrado")
		return nil
	}

	encoded, _ := json.MarshalIndent(lista, "", "  ")
	fmt.Println(string(encoded))
	return nil
}

func runDPC(ctx context.Context, users *usuarios.Service, args []string) error {
	id, err := parseID("dpc", args)
	if err != nil {
		return err
	}
	if err := users.DefinirDPC(ctx, id); err != nil {
		return err
	}
	fmt.Printf("usuário %d definido como DPC\n", id)
	return nil
}

func runAdmin(ctx context.Context, users *usuarios.Service, args []string) error {
	id, err := parseID("admin", args)
	if err != nil {
		return err
	}
	if err := users.SeedAdmin(ctx, id); err != nil {
		return err
	}
	fmt.Printf("usuário %d promovido a admin\n", id)
	return nil
}

func runAprovar(ctx context.Context, users *usuarios.Service, args []string) error {
	id, err := parseID("aprovar", args)
	if err != nil {
		return err
	}
	u, err := users.Aprovar(ctx, id)
	if err != nil {
		return err
	}
	fmt.Printf("usuário %d (%s) aprovado\n", u.ID, u.Nome)
	return nil
}

func runLembretesPendentes(ctx context.Context, pool *pgxpool.Pool) error {
	svc := lembretes.NewService(lembretes.NewRepository(pool, time.Local), nil, time.Local, log.Logger)
	n, err := svc.Pendentes(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("%d notificação(ões) de lembrete pendente(s)\n", n)
	return nil
}
