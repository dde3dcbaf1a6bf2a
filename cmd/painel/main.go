package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/gestaozabele/painelpregao/internal/config"
	"github.com/gestaozabele/painelpregao/internal/identity"
	"github.com/gestaozabele/painelpregao/internal/monitor"
	"github.com/gestaozabele/painelpregao/internal/report"
	"github.com/gestaozabele/painelpregao/internal/workspace"
)

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	storeCfg, err := config.LoadStore()
	if err != nil {
		log.Fatal().Err(err).Msg("configuração de armazenamento inválida")
	}

	ctx := context.Background()
	res, err := workspace.OpenBackend(ctx, storeCfg)
	if err != nil {
		log.Fatal().Err(err).Msg("não foi possível abrir o armazenamento")
	}
	defer res.Close()

	cmd := os.Args[1]
	args := os.Args[2:]

	var runErr error
	switch cmd {
	case "seed":
		runErr = runSeed(ctx, res, args)
	case "register":
		runErr = runRegister(ctx, res, args)
	case "login":
		runErr = runLogin(ctx, res, args)
	case "whoami":
		runErr = runWhoami(ctx, res, args)
	case "logout":
		runErr = runLogout(ctx, res, args)
	case "users":
		runErr = runUsers(ctx, res, args)
	case "companies":
		runErr = runCompanies(ctx, res, args)
	case "items":
		runErr = runItems(ctx, res, args)
	case "report":
		runErr = runReport(ctx, res, args)
	default:
		usage()
		os.Exit(1)
	}
	if runErr != nil {
		log.Fatal().Err(runErr).Str("cmd", cmd).Msg("comando falhou")
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "painel CLI")
	fmt.Fprintln(os.Stderr, "uso:")
	fmt.Fprintln(os.Stderr, "  painel seed --profile balcao-1")
	fmt.Fprintln(os.Stderr, "  painel register --profile balcao-1 --company \"Zabelê\" --cnpj 11.111.111/0001-11 --name \"Ana\" --email ana@zabele.com.br --password Senha123")
	fmt.Fprintln(os.Stderr, "  painel login --profile balcao-1 --email ana@zabele.com.br --password Senha123")
	fmt.Fprintln(os.Stderr, "  painel whoami --profile balcao-1")
	fmt.Fprintln(os.Stderr, "  painel logout --profile balcao-1")
	fmt.Fprintln(os.Stderr, "  painel users --profile balcao-1 [--company <id>]")
	fmt.Fprintln(os.Stderr, "  painel companies --profile balcao-1")
	fmt.Fprintln(os.Stderr, "  painel items --profile balcao-1 [--status active|suspended|closed]")
	fmt.Fprintln(os.Stderr, "  painel report --profile balcao-1")
}

func openProfile(ctx context.Context, res *workspace.Resources, fs *flag.FlagSet, args []string) (*workspace.Workspace, error) {
	profile := fs.String("profile", "", "perfil (dispositivo) a usar")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if *profile == "" {
		return nil, errors.New("--profile obrigatório")
	}
	return workspace.Open(ctx, res.Backend, *profile, nil, log.Logger)
}

func printJSON(v any) {
	output, _ := json.MarshalIndent(v, "", "  ")
	fmt.Println(string(output))
}

func runSeed(ctx context.Context, res *workspace.Resources, args []string) error {
	fs := flag.NewFlagSet("seed", flag.ContinueOnError)
	ws, err := openProfile(ctx, res, fs, args)
	if err != nil {
		return err
	}
	items, err := ws.Monitor.Items(ctx)
	if err != nil {
		return err
	}
	alerts, err := ws.Monitor.Alerts(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("perfil %s: %d pregões, %d alertas\n", ws.Profile, len(items), len(alerts))
	return nil
}

func runRegister(ctx context.Context, res *workspace.Resources, args []string) error {
	fs := flag.NewFlagSet("register", flag.ContinueOnError)
	var (
		company  = fs.String("company", "", "nome da empresa")
		cnpj     = fs.String("cnpj", "", "CNPJ da empresa")
		name     = fs.String("name", "", "nome do gerente")
		email    = fs.String("email", "", "e-mail do gerente")
		whatsapp = fs.String("whatsapp", "", "WhatsApp do gerente")
		password = fs.String("password", "", "senha inicial")
	)
	ws, err := openProfile(ctx, res, fs, args)
	if err != nil {
		return err
	}

	user, err := ws.Identity.RegisterCompanyAndAdmin(ctx, identity.RegisterCompanyInput{
		CompanyName: *company,
		CNPJ:        *cnpj,
		FullName:    *name,
		Email:       *email,
		Whatsapp:    *whatsapp,
		Password:    *password,
	})
	if err != nil {
		return err
	}
	printJSON(user.Public())
	return nil
}

// runLogin abre a sessão local do dispositivo (perfil), como o painel faz no navegador.
func runLogin(ctx context.Context, res *workspace.Resources, args []string) error {
	fs := flag.NewFlagSet("login", flag.ContinueOnError)
	email := fs.String("email", "", "e-mail do usuário")
	password := fs.String("password", "", "senha")
	ws, err := openProfile(ctx, res, fs, args)
	if err != nil {
		return err
	}
	result, err := ws.Session.Login(ctx, *email, *password)
	if err != nil {
		return err
	}
	if result.RequirePasswordChange {
		fmt.Fprintln(os.Stderr, "aviso: senha temporária, altere no painel")
	}
	printJSON(result.User.Public())
	return nil
}

func runWhoami(ctx context.Context, res *workspace.Resources, args []string) error {
	fs := flag.NewFlagSet("whoami", flag.ContinueOnError)
	ws, err := openProfile(ctx, res, fs, args)
	if err != nil {
		return err
	}
	user := ws.Session.CurrentUser()
	if user == nil {
		fmt.Println("nenhuma sessão ativa")
		return nil
	}
	printJSON(user)
	return nil
}

func runLogout(ctx context.Context, res *workspace.Resources, args []string) error {
	fs := flag.NewFlagSet("logout", flag.ContinueOnError)
	ws, err := openProfile(ctx, res, fs, args)
	if err != nil {
		return err
	}
	return ws.Session.Logout(ctx)
}

func runUsers(ctx context.Context, res *workspace.Resources, args []string) error {
	fs := flag.NewFlagSet("users", flag.ContinueOnError)
	companyID := fs.String("company", "", "filtra pela empresa")
	ws, err := openProfile(ctx, res, fs, args)
	if err != nil {
		return err
	}

	var users []identity.User
	if *companyID != "" {
		users, err = ws.Identity.GetUsersByCompany(ctx, *companyID)
	} else {
		users, err = ws.Identity.ListUsers(ctx)
	}
	if err != nil {
		return err
	}
	if len(users) == 0 {
		fmt.Println("nenhum usuário cadastrado")
		return nil
	}
	out := make([]identity.User, 0, len(users))
	for _, u := range users {
		out = append(out, u.Public())
	}
	printJSON(out)
	return nil
}

func runCompanies(ctx context.Context, res *workspace.Resources, args []string) error {
	fs := flag.NewFlagSet("companies", flag.ContinueOnError)
	ws, err := openProfile(ctx, res, fs, args)
	if err != nil {
		return err
	}
	companies, err := ws.Identity.ListCompanies(ctx)
	if err != nil {
		return err
	}
	if len(companies) == 0 {
		fmt.Println("nenhuma empresa cadastrada")
		return nil
	}
	printJSON(companies)
	return nil
}

func runItems(ctx context.Context, res *workspace.Resources, args []string) error {
	fs := flag.NewFlagSet("items", flag.ContinueOnError)
	status := fs.String("status", "", "filtra por status")
	ws, err := openProfile(ctx, res, fs, args)
	if err != nil {
		return err
	}

	var items []monitor.Item
	if *status != "" {
		st, err := monitor.ParseStatus(*status)
		if err != nil {
			return err
		}
		items, err = ws.Monitor.ItemsByStatus(ctx, st)
		if err != nil {
			return err
		}
	} else {
		items, err = ws.Monitor.Items(ctx)
		if err != nil {
			return err
		}
	}
	printJSON(items)
	return nil
}

func runReport(ctx context.Context, res *workspace.Resources, args []string) error {
	fs := flag.NewFlagSet("report", flag.ContinueOnError)
	ws, err := openProfile(ctx, res, fs, args)
	if err != nil {
		return err
	}
	items, err := ws.Monitor.Items(ctx)
	if err != nil {
		return err
	}
	printJSON(report.Build(items))
	return nil
}
