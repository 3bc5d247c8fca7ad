package main

import (
	"fmt"
	"os"
	"path/filepath"
	"text/tabwriter"

	"github.com/fjod/go_cart/storefront/internal/catalog"
	"github.com/fjod/go_cart/storefront/internal/client"
	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/fjod/go_cart/storefront/internal/export"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

var (
	productCategory string
	productSearch   string
	productsOut     string
	productForm     productFlags
)

// productFlags mirrors client.ProductForm as command-line flags.
type productFlags struct {
	title       string
	category    string
	price       string
	stock       int
	description string
	origin      string
	quality     string
	storage     string
	packaging   string
	weight      string
	images      []string
}

var productsCmd = &cobra.Command{
	Use:   "products",
	Short: "Maintain the product catalogue",
	Long: `Maintain the product catalogue.

Available subcommands:
  list   - List products
  create - Add a product with at least one image
  update - Replace a product's details
  delete - Remove a product
  export - Write every product to an xlsx workbook`,
}

var productsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List products",
	RunE:  runProductsList,
}

var productsCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Add a product",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runProductSave(cmd, "")
	},
}

var productsUpdateCmd = &cobra.Command{
	Use:   "update PRODUCT_ID",
	Short: "Replace a product's details",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runProductSave(cmd, args[0])
	},
}

var productsDeleteCmd = &cobra.Command{
	Use:   "delete PRODUCT_ID",
	Short: "Remove a product",
	Args:  cobra.ExactArgs(1),
	RunE:  runProductsDelete,
}

var productsExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export products to xlsx",
	RunE:  runProductsExport,
}

func runProductsList(cmd *cobra.Command, _ []string) error {
	ctx, cancel := withTimeout(cmd)
	defer cancel()

	products, err := current.catalog.List(ctx, catalog.Filter{
		Category: domain.Category(productCategory),
		Search:   productSearch,
	})
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTITLE\tCATEGORY\tPRICE\tSTOCK")
	for _, p := range products {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\n", p.ID, p.Title, p.Category, p.Price.StringFixed(2), p.Stock)
	}
	return tw.Flush()
}

func (f productFlags) form() (client.ProductForm, []*os.File, error) {
	form := client.ProductForm{
		Title:       f.title,
		Category:    domain.Category(f.category),
		Stock:       f.stock,
		Description: f.description,
		Origin:      f.origin,
		Quality:     f.quality,
		Storage:     f.storage,
		Packaging:   f.packaging,
		Weight:      f.weight,
	}
	if f.price != "" {
		price, err := decimal.NewFromString(f.price)
		if err != nil {
			return client.ProductForm{}, nil, fmt.Errorf("--price: %w", err)
		}
		form.Price = price
	}

	var opened []*os.File
	for _, path := range f.images {
		file, err := os.Open(path)
		if err != nil {
			closeAll(opened)
			return client.ProductForm{}, nil, err
		}
		opened = append(opened, file)
		form.Images = append(form.Images, client.Image{Filename: filepath.Base(path), Content: file})
	}
	return form, opened, nil
}

func closeAll(files []*os.File) {
	for _, f := range files {
		f.Close()
	}
}

// runProductSave creates a product when id is empty and updates it otherwise.
func runProductSave(cmd *cobra.Command, id string) error {
	if err := requireSession(); err != nil {
		return err
	}
	form, files, err := productForm.form()
	if err != nil {
		return err
	}
	defer closeAll(files)

	ctx, cancel := withTimeout(cmd)
	defer cancel()

	token := current.sessions.Token()
	var p domain.Product
	if id == "" {
		p, err = current.api.CreateProduct(ctx, token, form)
	} else {
		p, err = current.api.UpdateProduct(ctx, token, id, form)
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "saved %s (%s)\n", p.Title, p.ID)
	return nil
}

func runProductsDelete(cmd *cobra.Command, args []string) error {
	if err := requireSession(); err != nil {
		return err
	}
	ctx, cancel := withTimeout(cmd)
	defer cancel()

	if err := current.api.DeleteProduct(ctx, current.sessions.Token(), args[0]); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", args[0])
	return nil
}

func runProductsExport(cmd *cobra.Command, _ []string) error {
	ctx, cancel := withTimeout(cmd)
	defer cancel()

	products, err := current.catalog.List(ctx, catalog.Filter{})
	if err != nil {
		return err
	}
	f, err := os.Create(productsOut)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := export.WriteProducts(f, products); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "wrote %d products to %s\n", len(products), productsOut)
	return nil
}

func init() {
	productsListCmd.Flags().StringVar(&productCategory, "category", "", "Only this category")
	productsListCmd.Flags().StringVarP(&productSearch, "query", "q", "", "Search titles")
	productsExportCmd.Flags().StringVarP(&productsOut, "out", "o", "products.xlsx", "Output file")

	for _, c := range []*cobra.Command{productsCreateCmd, productsUpdateCmd} {
		fl := c.Flags()
		fl.StringVar(&productForm.title, "title", "", "Product title")
		fl.StringVar(&productForm.category, "category", "", "Category, e.g. Fruits")
		fl.StringVar(&productForm.price, "price", "", "Unit price")
		fl.IntVar(&productForm.stock, "stock", 0, "Units in stock")
		fl.StringVar(&productForm.description, "description", "", "Description")
		fl.StringVar(&productForm.origin, "origin", "", "Origin")
		fl.StringVar(&productForm.quality, "quality", "", "Quality grade")
		fl.StringVar(&productForm.storage, "storage", "", "Storage advice")
		fl.StringVar(&productForm.packaging, "packaging", "", "Packaging")
		fl.StringVar(&productForm.weight, "weight", "", "Weight")
		fl.StringSliceVar(&productForm.images, "image", nil, "Image file; repeat for more")
	}

	productsCmd.AddCommand(productsListCmd)
	productsCmd.AddCommand(productsCreateCmd)
	productsCmd.AddCommand(productsUpdateCmd)
	productsCmd.AddCommand(productsDeleteCmd)
	productsCmd.AddCommand(productsExportCmd)
}
