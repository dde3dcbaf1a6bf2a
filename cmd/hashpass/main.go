package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/gestaozabele/painelpregao/internal/auth"
)

func main() {
	fromStdin := flag.Bool("stdin", false, "lê a senha da entrada padrão")
	check := flag.String("check", "", "confere a senha contra um hash existente")
	flag.Parse()

	password, err := readPassword(*fromStdin, flag.Args())
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		fmt.Fprintln(os.Stderr, "uso: hashpass [-check <hash>] <senha> | hashpass -stdin")
		os.Exit(1)
	}

	if *check != "" {
		ok, err := auth.Verify(password, *check)
		if err != nil {
			fmt.Fprintf(os.Stderr, "hash inválido: %v\n", err)
			os.Exit(1)
		}
		if !ok {
			fmt.Println("não confere")
			os.Exit(2)
		}
		if auth.NeedsRehash(*check) {
			fmt.Println("confere (parâmetros antigos, será refeito no próximo login)")
			return
		}
		fmt.Println("confere")
		return
	}

	for _, v := range auth.ValidatePassword(password) {
		fmt.Fprintf(os.Stderr, "aviso: %s\n", v.Message())
	}

	hash, err := auth.Hash(password)
	if err != nil {
		fmt.Fprintf(os.Stderr, "erro ao gerar hash: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(hash)
}

func readPassword(fromStdin bool, args []string) (string, error) {
	if fromStdin {
		line, err := bufio.NewReader(os.Stdin).ReadString('\n')
		if err != nil && line == "" {
			return "", fmt.Errorf("senha não lida: %w", err)
		}
		return strings.TrimRight(line, "\r\n"), nil
	}
	if len(args) < 1 {
		return "", fmt.Errorf("senha obrigatória")
	}
	return args[0], nil
}
