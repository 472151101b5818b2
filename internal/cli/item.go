package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/roach88/mine/internal/item"
)

// ItemOptions holds the payload flags shared by create and update.
type ItemOptions struct {
	*RootOptions
	ID          string
	Name        string
	Description string
	Value       int
}

// ImportResult reports the outcome for one item in an import file.
type ImportResult struct {
	ID      string `json:"id"`
	Created bool   `json:"created"`
}

// DeleteResult is the JSON payload of a successful delete.
type DeleteResult struct {
	ID      string `json:"id"`
	Deleted bool   `json:"deleted"`
}

// NewItemCommand creates the item command and its subcommands.
func NewItemCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "item",
		Short: "Manage stored items",
		Long: `Create, read, update, delete, list and import items.

Exit codes:
  0 - Operation succeeded
  1 - Operation declined (unknown id, id already taken)
  2 - Command error (bad config, database failure, invalid input)`,
	}

	cmd.AddCommand(newItemCreateCommand(rootOpts))
	cmd.AddCommand(newItemReadCommand(rootOpts))
	cmd.AddCommand(newItemUpdateCommand(rootOpts))
	cmd.AddCommand(newItemDeleteCommand(rootOpts))
	cmd.AddCommand(newItemListCommand(rootOpts))
	cmd.AddCommand(newItemImportCommand(rootOpts))

	for _, sub := range cmd.Commands() {
		sub.SilenceUsage = true  // Don't print usage on errors
		sub.SilenceErrors = true // Errors are written by OutputFormatter
	}

	return cmd
}

func newItemCreateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ItemOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create an item",
		Long: `Create a new item. Without --id a time-ordered UUID is assigned.

Example:
  mine item create --name Sword --value 10
  mine item create --id a1 --name Sword --description sharp`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runItemCreate(opts, cmd)
		},
	}

	addItemFlags(cmd, opts)
	cmd.Flags().StringVar(&opts.ID, "id", "", "item id (generated when empty)")

	return cmd
}

func newItemUpdateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ItemOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Replace an item",
		Long: `Replace every field of an existing item. Fields not given are cleared.

Example:
  mine item update a1 --name Shield --value 4`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.ID = args[0]
			return runItemUpdate(opts, cmd)
		},
	}

	addItemFlags(cmd, opts)

	return cmd
}

func addItemFlags(cmd *cobra.Command, opts *ItemOptions) {
	cmd.Flags().StringVar(&opts.Name, "name", "", "item name (required)")
	cmd.Flags().StringVar(&opts.Description, "description", "", "item description")
	cmd.Flags().IntVar(&opts.Value, "value", 0, "item value")
	_ = cmd.MarkFlagRequired("name")
}

func (o *ItemOptions) item() *item.Item {
	it := &item.Item{
		ID:          o.ID,
		Name:        o.Name,
		Description: o.Description,
		Value:       o.Value,
	}
	item.Normalize(it)
	return it
}

func (o *RootOptions) idGenerator() item.IDGenerator {
	if o.IDGenerator == nil {
		return item.UUIDv7Generator{}
	}
	return o.IDGenerator
}

func runItemCreate(opts *ItemOptions, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)
	ctx := commandContext(cmd)

	it := opts.item()
	if it.ID == "" {
		it.ID = opts.idGenerator().NewID()
	}
	if it.Name == "" {
		return formatter.Fail(ExitCommandError, ErrCodeInvalidInput, "name must not be blank", nil)
	}

	s, err := openSession(ctx, opts.RootOptions, formatter)
	if err != nil {
		return err
	}
	defer s.Close()

	ok, err := s.items.Create(ctx, it)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeDatabase, "failed to create item", err)
	}
	if !ok {
		return formatter.Fail(ExitFailure, ErrCodeConflict, fmt.Sprintf("item %s already exists", it.ID), nil)
	}

	if formatter.Format == "json" {
		return formatter.Success(it)
	}
	fmt.Fprintf(formatter.Writer, "✓ Created item %s\n", it.ID)
	return nil
}

func runItemUpdate(opts *ItemOptions, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)
	ctx := commandContext(cmd)

	it := opts.item()
	if it.Name == "" {
		return formatter.Fail(ExitCommandError, ErrCodeInvalidInput, "name must not be blank", nil)
	}

	s, err := openSession(ctx, opts.RootOptions, formatter)
	if err != nil {
		return err
	}
	defer s.Close()

	ok, err := s.items.Update(ctx, it)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeDatabase, "failed to update item", err)
	}
	if !ok {
		return formatter.Fail(ExitFailure, ErrCodeNotFound, fmt.Sprintf("item %s not found", it.ID), nil)
	}

	if formatter.Format == "json" {
		return formatter.Success(it)
	}
	fmt.Fprintf(formatter.Writer, "✓ Updated item %s\n", it.ID)
	return nil
}

func newItemReadCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "read <id>",
		Short: "Show one item",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runItemRead(rootOpts, args[0], cmd)
		},
	}
}

func runItemRead(opts *RootOptions, id string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)
	ctx := commandContext(cmd)

	s, err := openSession(ctx, opts, formatter)
	if err != nil {
		return err
	}
	defer s.Close()

	it, err := s.items.Read(ctx, strings.TrimSpace(id))
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeDatabase, "failed to read item", err)
	}
	if it == nil {
		return formatter.Fail(ExitFailure, ErrCodeNotFound, fmt.Sprintf("item %s not found", id), nil)
	}

	if formatter.Format == "json" {
		return formatter.Success(it)
	}
	data, err := yaml.Marshal(it)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeGeneric, "failed to render item", err)
	}
	_, err = formatter.Writer.Write(data)
	return err
}

func newItemDeleteCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete an item",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runItemDelete(rootOpts, args[0], cmd)
		},
	}
}

func runItemDelete(opts *RootOptions, id string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)
	ctx := commandContext(cmd)
	id = strings.TrimSpace(id)

	s, err := openSession(ctx, opts, formatter)
	if err != nil {
		return err
	}
	defer s.Close()

	ok, err := s.items.Delete(ctx, id)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeDatabase, "failed to delete item", err)
	}
	if !ok {
		return formatter.Fail(ExitFailure, ErrCodeNotFound, fmt.Sprintf("item %s not found", id), nil)
	}

	if formatter.Format == "json" {
		return formatter.Success(DeleteResult{ID: id, Deleted: true})
	}
	fmt.Fprintf(formatter.Writer, "✓ Deleted item %s\n", id)
	return nil
}

func newItemListCommand(rootOpts *RootOptions) *cobra.Command {
	var refresh bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List all items in insertion order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runItemList(rootOpts, refresh, cmd)
		},
	}

	cmd.Flags().BoolVar(&refresh, "refresh", false, "accepted for compatibility; every list reads the database")

	return cmd
}

func runItemList(opts *RootOptions, refresh bool, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)
	ctx := commandContext(cmd)

	s, err := openSession(ctx, opts, formatter)
	if err != nil {
		return err
	}
	defer s.Close()

	items, err := s.items.Index(ctx, refresh)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeDatabase, "failed to list items", err)
	}

	if formatter.Format == "json" {
		return formatter.Success(items)
	}

	if len(items) == 0 {
		fmt.Fprintln(formatter.Writer, "No items.")
		return nil
	}

	tw := tabwriter.NewWriter(formatter.Writer, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tVALUE\tDESCRIPTION")
	for _, it := range items {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\n", it.ID, it.Name, it.Value, it.Description)
	}
	return tw.Flush()
}

func newItemImportCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: "Create items from a YAML list",
		Long: `Create every item in a YAML file holding a list of items.

Items without an id get a generated one. Items whose id is already taken
are skipped and reported as not created.

Example file:
  - id: a1
    name: Sword
    value: 10
  - name: Shield`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runItemImport(rootOpts, args[0], cmd)
		},
	}
}

// loadImportFile parses a YAML list of items, rejecting unknown keys.
func loadImportFile(path string) ([]item.Item, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read import file: %w", err)
	}
	defer f.Close()

	var items []item.Item
	dec := yaml.NewDecoder(f)
	dec.KnownFields(true) // Reject unknown fields
	if err := dec.Decode(&items); err != nil {
		if errors.Is(err, io.EOF) {
			return []item.Item{}, nil
		}
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	return items, nil
}

func runItemImport(opts *RootOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)
	ctx := commandContext(cmd)

	items, err := loadImportFile(path)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeInvalidInput, "invalid import file", err)
	}
	for i := range items {
		item.Normalize(&items[i])
		if items[i].Name == "" {
			return formatter.Fail(ExitCommandError, ErrCodeInvalidInput, fmt.Sprintf("item %d: name must not be blank", i), nil)
		}
	}

	s, err := openSession(ctx, opts, formatter)
	if err != nil {
		return err
	}
	defer s.Close()

	gen := opts.idGenerator()
	results := make([]ImportResult, 0, len(items))
	for i := range items {
		it := &items[i]
		if it.ID == "" {
			it.ID = gen.NewID()
		}
		ok, err := s.items.Create(ctx, it)
		if err != nil {
			return formatter.Fail(ExitCommandError, ErrCodeDatabase, fmt.Sprintf("failed to import item %s", it.ID), err)
		}
		formatter.VerboseLog("Imported %s: %t", it.ID, ok)
		results = append(results, ImportResult{ID: it.ID, Created: ok})
	}

	if formatter.Format == "json" {
		return formatter.Success(results)
	}

	created := 0
	for _, r := range results {
		mark := "✓"
		if r.Created {
			created++
		} else {
			mark = "✗"
		}
		fmt.Fprintf(formatter.Writer, "%s %s\n", mark, r.ID)
	}
	fmt.Fprintf(formatter.Writer, "\nImported %d of %d item(s)\n", created, len(results))
	return nil
}
