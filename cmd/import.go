package main

import (
	"context"
	"fmt"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gopkg.in/yaml.v3"

	"github.com/hero-lab/litscreen/internal/classify"
	"github.com/hero-lab/litscreen/internal/dataset"
	"github.com/hero-lab/litscreen/internal/model"
	"github.com/hero-lab/litscreen/internal/store"
)

var importUsersFile string

var importCmd = &cobra.Command{
	Use:   "import <keep.csv>",
	Short: "Bulk-load screened papers into the catalog store",
	Long: `Creates the schema if needed, imports papers from a screened CSV
(rows with an empty title are skipped and counted), and optionally seeds
reviewer accounts from a YAML file with bcrypt-hashed passwords.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		t, err := dataset.Load(args[0])
		if err != nil {
			return err
		}
		papers, skipped := papersFromTable(t)

		n, err := st.ImportPapers(ctx, papers)
		if err != nil {
			return err
		}
		zap.L().Info("papers imported",
			zap.Int("imported", n),
			zap.Int("skipped_empty_title", skipped),
		)
		fmt.Printf("Imported %d papers (%d empty-title rows skipped)\n", n, skipped)

		if importUsersFile != "" {
			created, err := seedUsers(ctx, st, importUsersFile)
			if err != nil {
				return err
			}
			fmt.Printf("Created %d users\n", created)
		}
		return nil
	},
}

// papersFromTable maps export rows onto papers using column detection.
// Rows without a title are skipped and counted.
func papersFromTable(t *dataset.Table) ([]model.Paper, int) {
	titleCol := dataset.TitleColumn(t.Header)
	col := func(concept string) int {
		if idx, ok := dataset.DetectColumn(t.Header, concept); ok {
			return idx
		}
		return -1
	}
	authorsCol, yearCol := col("authors"), col("year")
	abstractCol, doiCol, sourceCol := col("abstract"), col("doi"), col("source")
	confidenceCol := -1
	if idx, err := t.ColumnIndex(classify.ConfidenceColumn); err == nil {
		confidenceCol = idx
	}

	cell := func(row, c int) string {
		if c < 0 {
			return ""
		}
		return t.Cell(row, c)
	}

	var papers []model.Paper
	skipped := 0
	for i := range t.Rows {
		title := t.Cell(i, titleCol)
		if title == "" {
			skipped++
			continue
		}
		papers = append(papers, model.Paper{
			Title:         title,
			Authors:       cell(i, authorsCol),
			Year:          model.ParseYear(cell(i, yearCol)),
			Abstract:      cell(i, abstractCol),
			DOI:           cell(i, doiCol),
			Source:        cell(i, sourceCol),
			NLPConfidence: cell(i, confidenceCol),
		})
	}
	return papers, skipped
}

// userSeed is one entry of the --create-users YAML file.
type userSeed struct {
	Username    string `yaml:"username"`
	Password    string `yaml:"password"`
	DisplayName string `yaml:"display_name"`
	Role        string `yaml:"role"`
	InviteCode  string `yaml:"invite_code"`
}

func seedUsers(ctx context.Context, st store.Store, path string) (int, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return 0, eris.Wrapf(err, "read users file %s", path)
	}

	var seeds struct {
		Users []userSeed `yaml:"users"`
	}
	if err := yaml.Unmarshal(raw, &seeds); err != nil {
		return 0, eris.Wrapf(err, "parse users file %s", path)
	}

	created := 0
	for _, seed := range seeds.Users {
		if seed.Username == "" || seed.Password == "" {
			return created, eris.Errorf("user entry missing username or password")
		}
		role := model.Role(seed.Role)
		if seed.Role == "" {
			role = model.RoleContributor
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(seed.Password), bcrypt.DefaultCost)
		if err != nil {
			return created, eris.Wrapf(err, "hash password for %s", seed.Username)
		}

		u, err := st.CreateUser(ctx, model.User{
			Username:     seed.Username,
			PasswordHash: string(hash),
			DisplayName:  seed.DisplayName,
			Role:         role,
			InviteCode:   seed.InviteCode,
		})
		if err != nil {
			// Reseeding an existing roster should not abort the import.
			zap.L().Warn("skipping user", zap.String("username", seed.Username), zap.Error(err))
			continue
		}
		zap.L().Info("user created",
			zap.String("username", u.Username),
			zap.String("role", string(u.Role)),
			zap.Int64("user_id", u.ID),
		)
		created++
	}
	return created, nil
}

func init() {
	importCmd.Flags().StringVar(&importUsersFile, "create-users", "", "YAML file of reviewer accounts to seed")
	rootCmd.AddCommand(importCmd)
}
