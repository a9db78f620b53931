package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/alucardeht/wayleave/internal/daemon"
	"github.com/alucardeht/wayleave/internal/letter"
	"github.com/alucardeht/wayleave/internal/tools/letters"
)

const dateLayout = "2006-01-02"

var (
	generateDate     string
	generateOwner    string
	generateAddress  []string
	generateOutput   string
	generateNameOnly bool
	generateSocket   bool
	generatePostcode bool
)

var generateCmd = &cobra.Command{
	Use:   "generate [file]",
	Short: "Render the cover letter for one agreement",
	Long: `Render the cover letter for one agreement and print it, or write it with
--output. The agreement is read from file, or from standard input when file is
omitted or "-". Every problem that prevents a letter is listed on stderr.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runGenerate,
}

func init() {
	generateCmd.Flags().StringVar(&generateDate, "date", "", "Letter date as YYYY-MM-DD (default today)")
	generateCmd.Flags().StringVar(&generateOwner, "owner", "", "Landowner name to use instead of the extracted one")
	generateCmd.Flags().StringArrayVar(&generateAddress, "address", nil, "Property address line to use instead of the extracted address (repeatable)")
	generateCmd.Flags().StringVarP(&generateOutput, "output", "o", "", "Write the letter to this file")
	generateCmd.Flags().BoolVar(&generateNameOnly, "name", false, "Print the suggested letter filename instead of the letter")
	generateCmd.Flags().BoolVar(&generateSocket, "socket", false, "Generate through the running daemon")
	generateCmd.Flags().BoolVar(&generatePostcode, "require-postcode", false, "Reject addresses that do not end in a UK postcode")
	rootCmd.AddCommand(generateCmd)
}

func runGenerate(cmd *cobra.Command, args []string) error {
	today := time.Now()
	if generateDate != "" {
		d, err := time.ParseInLocation(dateLayout, generateDate, time.Local)
		if err != nil {
			return fmt.Errorf("--date must be YYYY-MM-DD: %w", err)
		}
		today = d
	}

	path := ""
	if len(args) == 1 {
		path = args[0]
	}

	var text, name string
	var err error
	if generateSocket {
		text, name, err = generateRemote(cmd.Context(), path, today)
	} else {
		text, name, err = generateLocal(path, today)
	}
	if err != nil {
		return err
	}

	if generateNameOnly {
		fmt.Fprintln(cmd.OutOrStdout(), name)
		return nil
	}
	if generateOutput != "" {
		return os.WriteFile(generateOutput, []byte(text), 0644)
	}
	_, err = fmt.Fprint(cmd.OutOrStdout(), text)
	return err
}

func generateLocal(path string, today time.Time) (string, string, error) {
	doc, err := readAgreement(path, cfg.Batch.MaxFileSize)
	if err != nil {
		return "", "", err
	}

	v := validator(cfg)
	v.RequirePostcode = v.RequirePostcode || generatePostcode

	pipeline := letter.Pipeline{
		Validator: v,
		Overrides: letter.Overrides{OwnerName: generateOwner, Address: generateAddress},
	}
	fields, err := pipeline.Prepare(doc.Text)
	if err != nil {
		return "", "", reportProblems(err)
	}

	return letter.Render(fields, today), letter.SuggestFilename(fields), nil
}

func generateRemote(ctx context.Context, path string, today time.Time) (string, string, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	req := letters.GenerateRequest{
		Date:      today.Format(dateLayout),
		OwnerName: generateOwner,
		Address:   generateAddress,
	}
	if path == "" || path == "-" {
		doc, err := readAgreement(path, cfg.Batch.MaxFileSize)
		if err != nil {
			return "", "", err
		}
		req.Text = doc.Text
	} else {
		abs, err := filepath.Abs(path)
		if err != nil {
			return "", "", err
		}
		req.Path = abs
	}

	ctx, cancel := context.WithTimeout(ctx, time.Minute)
	defer cancel()

	client, err := daemon.Dial(ctx, cfg.SocketPath)
	if err != nil {
		return "", "", fmt.Errorf("%w (start it with \"wayleave daemon\")", err)
	}
	defer client.Close()

	var resp letters.GenerateResponse
	if err := client.CallTool(ctx, "letter_generate", req, &resp); err != nil {
		return "", "", err
	}
	if !resp.OK {
		for _, p := range resp.Problems {
			fmt.Fprintf(os.Stderr, "%s: %s: %s\n", p.Stage, p.Field, p.Reason)
		}
		return "", "", errNoLetter
	}
	return resp.Letter, resp.Filename, nil
}
