package routes

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"imagehost/db"
	"imagehost/models"
	"imagehost/storetables"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"gorm.io/gorm"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Adjust this for production
	},
}

// Connected clients map with mutex for thread safety
var clients = make(map[*websocket.Conn]bool)
var broadcast = make(chan []byte, 100) // Buffered channel to prevent blocking
var mutex = &sync.Mutex{}
var validate = validator.New()

var repo *storetables.Repo
var uploadDir string

// uploadEvent is broadcast to websocket clients after a successful upload
type uploadEvent struct {
	StoreID   uint   `json:"store_id"`
	ImageID   int64  `json:"image_id"`
	ImageCode string `json:"image_code"`
	URL       string `json:"url"`
}

type imageUpdateRequest struct {
	Name      string `json:"name" validate:"required"`
	ImageCode string `json:"image_code" validate:"required"`
}

func SetupRoutes(app *fiber.App, r *storetables.Repo, dir string) {
	repo = r
	uploadDir = dir

	wsHandler := adaptor.HTTPHandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		conn, err := upgrader.Upgrade(w, req, nil)
		if err != nil {
			log.Println("Error upgrading:", err)
			return
		}
		defer conn.Close()

		mutex.Lock()
		clients[conn] = true
		mutex.Unlock()
		log.Println("Client connected:", conn.RemoteAddr())

		for {
			_, _, err := conn.ReadMessage()
			if err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
					log.Printf("WebSocket read error: %v", err)
				}
				mutex.Lock()
				delete(clients, conn)
				mutex.Unlock()
				log.Println("Client disconnected:", conn.RemoteAddr())
				break
			}
		}
	})

	// Handle broadcasting upload events to all clients
	go func() {
		for message := range broadcast {
			mutex.Lock()
			for client := range clients {
				err := client.WriteMessage(websocket.TextMessage, message)
				if err != nil {
					log.Printf("WebSocket write error: %v", err)
					client.Close()
					delete(clients, client)
				}
			}
			mutex.Unlock()
		}
	}()

	// Mount WebSocket endpoint
	app.Get("/ws", wsHandler)

	api := app.Group("/api")

	// Store routes
	stores := api.Group("/stores")
	stores.Post("/", createStore)
	stores.Get("/", getAllStores)
	stores.Get("/:storeID", getStore)
	stores.Put("/:storeID", updateStore)
	stores.Delete("/:storeID", deleteStore)

	// Category routes
	categories := stores.Group("/:storeID/categories")
	categories.Post("/", createCategory)
	categories.Get("/", getAllCategories)
	categories.Get("/:id", getCategory)
	categories.Put("/:id", updateCategory)
	categories.Delete("/:id", deleteCategory)

	// Product routes
	products := stores.Group("/:storeID/products")
	products.Post("/", createProduct)
	products.Get("/", getAllProducts)
	products.Get("/:id", getProduct)
	products.Put("/:id", updateProduct)
	products.Delete("/:id", deleteProduct)

	// Image routes
	images := stores.Group("/:storeID/images")
	images.Post("/", createImage)
	images.Get("/", getAllImages)
	images.Get("/code/:code", getImageByCode)
	images.Get("/:id", getImage)
	images.Put("/:id", updateImage)
	images.Delete("/:id", deleteImage)

	// Image upload route
	stores.Post("/:storeID/upload", uploadImage)
}

// notifyUpload pushes an upload event into the websocket broadcast channel
func notifyUpload(event uploadEvent) {
	payload, err := json.Marshal(event)
	if err != nil {
		return
	}
	select {
	case broadcast <- payload:
	default: // drop the event rather than block the request
	}
}

// coreStatus maps storetables errors to HTTP status codes
func coreStatus(err error) int {
	switch {
	case errors.Is(err, storetables.ErrInvalidIdentifier):
		return fiber.StatusBadRequest
	case errors.Is(err, storetables.ErrNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, storetables.ErrConstraint):
		return fiber.StatusConflict
	}
	return fiber.StatusInternalServerError
}

// loadStore parses the storeID path parameter, checks the store exists and
// returns its table-set identifier. The ident is always derived from the
// stored id, never from the raw path segment, so aliases like "01" resolve
// to the canonical store_1_* tables instead of a never-provisioned set.
func loadStore(c *fiber.Ctx) (models.Store, storetables.StoreIdent, error) {
	id, err := strconv.ParseUint(c.Params("storeID"), 10, 64)
	if err != nil {
		return models.Store{}, "", fmt.Errorf("%w: %q", storetables.ErrInvalidIdentifier, c.Params("storeID"))
	}
	var store models.Store
	if err := db.DB.First(&store, uint(id)).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return models.Store{}, "", storetables.ErrNotFound
		}
		return models.Store{}, "", err
	}
	ident, err := storetables.IdentForStore(store.ID)
	if err != nil {
		return models.Store{}, "", err
	}
	return store, ident, nil
}

// CreateStore - POST /stores
func createStore(c *fiber.Ctx) error {
	store := new(models.Store)

	if err := c.BodyParser(store); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Failed to parse request body",
		})
	}

	if err := validate.Struct(store); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Name field is required",
		})
	}

	// Creates the store row and provisions its table set atomically
	if err := repo.CreateStore(c.UserContext(), store); err != nil {
		return c.Status(coreStatus(err)).JSON(fiber.Map{
			"error": "Failed to create store",
		})
	}

	return c.Status(fiber.StatusCreated).JSON(store)
}

// GetAllStores - GET /stores
func getAllStores(c *fiber.Ctx) error {
	var stores []models.Store

	if err := db.DB.Find(&stores).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to get stores",
		})
	}

	return c.JSON(stores)
}

// GetStore - GET /stores/:storeID
func getStore(c *fiber.Ctx) error {
	store, _, err := loadStore(c)
	if err != nil {
		return c.Status(coreStatus(err)).JSON(fiber.Map{
			"error": "Store not found",
		})
	}

	return c.JSON(store)
}

// UpdateStore - PUT /stores/:storeID
func updateStore(c *fiber.Ctx) error {
	existingStore, _, err := loadStore(c)
	if err != nil {
		return c.Status(coreStatus(err)).JSON(fiber.Map{
			"error": "Store not found",
		})
	}

	store := new(models.Store)
	if err := c.BodyParser(store); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Failed to parse request body",
		})
	}

	if err := validate.Struct(store); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Name field is required",
		})
	}

	if err := db.DB.Model(&existingStore).Update("name", store.Name).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to update store",
		})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "Store updated successfully",
		"data":    existingStore,
	})
}

// DeleteStore - DELETE /stores/:storeID
// Removes the store row and drops its table set.
func deleteStore(c *fiber.Ctx) error {
	store, _, err := loadStore(c)
	if err != nil {
		return c.Status(coreStatus(err)).JSON(fiber.Map{
			"error": "Store not found",
		})
	}

	if err := repo.DeleteStore(c.UserContext(), store.ID); err != nil {
		return c.Status(coreStatus(err)).JSON(fiber.Map{
			"error": "Failed to delete store",
		})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "Store deleted successfully",
	})
}

// CreateCategory - POST /stores/:storeID/categories
func createCategory(c *fiber.Ctx) error {
	_, ident, err := loadStore(c)
	if err != nil {
		return c.Status(coreStatus(err)).JSON(fiber.Map{
			"error": "Store not found",
		})
	}

	category := new(models.Category)
	if err := c.BodyParser(category); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Failed to parse request body",
		})
	}

	if err := validate.Struct(category); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Name field is required",
		})
	}

	if err := repo.CreateCategory(c.UserContext(), ident, category); err != nil {
		return c.Status(coreStatus(err)).JSON(fiber.Map{
			"error": "Failed to create category",
		})
	}

	return c.Status(fiber.StatusCreated).JSON(category)
}

// GetAllCategories - GET /stores/:storeID/categories?search=&sort=
func getAllCategories(c *fiber.Ctx) error {
	_, ident, err := loadStore(c)
	if err != nil {
		return c.Status(coreStatus(err)).JSON(fiber.Map{
			"error": "Store not found",
		})
	}

	cur, err := repo.FilterCategories(c.UserContext(), ident,
		c.Query("search"), storetables.SortKey(c.Query("sort")))
	if err != nil {
		return c.Status(coreStatus(err)).JSON(fiber.Map{
			"error": "Failed to get categories",
		})
	}
	categories, err := cur.Collect()
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to get categories",
		})
	}

	return c.JSON(fiber.Map{
		"categories": categories,
		"total":      len(categories),
	})
}

// GetCategory - GET /stores/:storeID/categories/:id
func getCategory(c *fiber.Ctx) error {
	_, ident, err := loadStore(c)
	if err != nil {
		return c.Status(coreStatus(err)).JSON(fiber.Map{
			"error": "Store not found",
		})
	}

	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid category id",
		})
	}

	category, err := repo.GetCategory(c.UserContext(), ident, id)
	if err != nil {
		return c.Status(coreStatus(err)).JSON(fiber.Map{
			"error": "Category not found",
		})
	}

	return c.JSON(category)
}

// UpdateCategory - PUT /stores/:storeID/categories/:id
func updateCategory(c *fiber.Ctx) error {
	_, ident, err := loadStore(c)
	if err != nil {
		return c.Status(coreStatus(err)).JSON(fiber.Map{
			"error": "Store not found",
		})
	}

	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid category id",
		})
	}

	category := new(models.Category)
	if err := c.BodyParser(category); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Failed to parse request body",
		})
	}

	if err := validate.Struct(category); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Name field is required",
		})
	}

	if err := repo.UpdateCategory(c.UserContext(), ident, id, category.Name); err != nil {
		return c.Status(coreStatus(err)).JSON(fiber.Map{
			"error": "Failed to update category",
		})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "Category updated successfully",
	})
}

// DeleteCategory - DELETE /stores/:storeID/categories/:id
// Cascades to the category's products and their images.
func deleteCategory(c *fiber.Ctx) error {
	_, ident, err := loadStore(c)
	if err != nil {
		return c.Status(coreStatus(err)).JSON(fiber.Map{
			"error": "Store not found",
		})
	}

	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid category id",
		})
	}

	if err := repo.DeleteCategoryCascade(c.UserContext(), ident, id); err != nil {
		return c.Status(coreStatus(err)).JSON(fiber.Map{
			"error": "Failed to delete category",
		})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "Category deleted successfully",
	})
}

// CreateProduct - POST /stores/:storeID/products
func createProduct(c *fiber.Ctx) error {
	_, ident, err := loadStore(c)
	if err != nil {
		return c.Status(coreStatus(err)).JSON(fiber.Map{
			"error": "Store not found",
		})
	}

	product := new(models.Product)
	if err := c.BodyParser(product); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Failed to parse request body",
		})
	}

	if err := validate.Struct(product); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Name and category_id fields are required",
		})
	}

	if err := repo.CreateProduct(c.UserContext(), ident, product); err != nil {
		if errors.Is(err, storetables.ErrConstraint) {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{
				"error": "Category does not exist in this store",
			})
		}
		return c.Status(coreStatus(err)).JSON(fiber.Map{
			"error": "Failed to create product",
		})
	}

	return c.Status(fiber.StatusCreated).JSON(product)
}

// GetAllProducts - GET /stores/:storeID/products?search=&category_id=&sort=
func getAllProducts(c *fiber.Ctx) error {
	_, ident, err := loadStore(c)
	if err != nil {
		return c.Status(coreStatus(err)).JSON(fiber.Map{
			"error": "Store not found",
		})
	}

	categoryID, _ := strconv.ParseInt(c.Query("category_id", "0"), 10, 64)
	cur, err := repo.FilterProducts(c.UserContext(), ident,
		c.Query("search"), categoryID, storetables.SortKey(c.Query("sort")))
	if err != nil {
		return c.Status(coreStatus(err)).JSON(fiber.Map{
			"error": "Failed to get products",
		})
	}
	products, err := cur.Collect()
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to get products",
		})
	}

	return c.JSON(fiber.Map{
		"products": products,
		"total":    len(products),
	})
}

// GetProduct - GET /stores/:storeID/products/:id
func getProduct(c *fiber.Ctx) error {
	_, ident, err := loadStore(c)
	if err != nil {
		return c.Status(coreStatus(err)).JSON(fiber.Map{
			"error": "Store not found",
		})
	}

	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid product id",
		})
	}

	product, err := repo.GetProduct(c.UserContext(), ident, id)
	if err != nil {
		return c.Status(coreStatus(err)).JSON(fiber.Map{
			"error": "Product not found",
		})
	}

	return c.JSON(product)
}

// UpdateProduct - PUT /stores/:storeID/products/:id
func updateProduct(c *fiber.Ctx) error {
	_, ident, err := loadStore(c)
	if err != nil {
		return c.Status(coreStatus(err)).JSON(fiber.Map{
			"error": "Store not found",
		})
	}

	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid product id",
		})
	}

	product := new(models.Product)
	if err := c.BodyParser(product); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Failed to parse request body",
		})
	}

	if err := validate.Struct(product); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Name and category_id fields are required",
		})
	}

	if err := repo.UpdateProduct(c.UserContext(), ident, id, *product); err != nil {
		return c.Status(coreStatus(err)).JSON(fiber.Map{
			"error": "Failed to update product",
		})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "Product updated successfully",
	})
}

// DeleteProduct - DELETE /stores/:storeID/products/:id
func deleteProduct(c *fiber.Ctx) error {
	_, ident, err := loadStore(c)
	if err != nil {
		return c.Status(coreStatus(err)).JSON(fiber.Map{
			"error": "Store not found",
		})
	}

	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid product id",
		})
	}

	if err := repo.DeleteProduct(c.UserContext(), ident, id); err != nil {
		return c.Status(coreStatus(err)).JSON(fiber.Map{
			"error": "Failed to delete product",
		})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "Product deleted successfully",
	})
}

// CreateImage - POST /stores/:storeID/images
// Creates an image row without an uploaded file. The code must be unique
// within this store; an empty code is generated from the name.
func createImage(c *fiber.Ctx) error {
	_, ident, err := loadStore(c)
	if err != nil {
		return c.Status(coreStatus(err)).JSON(fiber.Map{
			"error": "Store not found",
		})
	}

	image := new(models.Image)
	if err := c.BodyParser(image); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Failed to parse request body",
		})
	}

	if err := validate.Struct(image); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Name and product_id fields are required",
		})
	}

	if image.ImageCode == "" {
		image.ImageCode, err = repo.UniqueCode(c.UserContext(), ident,
			storetables.GenerateImageCode(image.Name))
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Failed to generate image code",
			})
		}
	} else {
		image.ImageCode = storetables.NormalizeCode(image.ImageCode)
	}

	if err := repo.CreateImage(c.UserContext(), ident, image); err != nil {
		if errors.Is(err, storetables.ErrDuplicateCode) {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{
				"error": "Image code already exists in this store",
			})
		}
		return c.Status(coreStatus(err)).JSON(fiber.Map{
			"error": "Failed to create image",
		})
	}

	return c.Status(fiber.StatusCreated).JSON(image)
}

// GetAllImages - GET /stores/:storeID/images?search=&product_id=&sort=
func getAllImages(c *fiber.Ctx) error {
	_, ident, err := loadStore(c)
	if err != nil {
		return c.Status(coreStatus(err)).JSON(fiber.Map{
			"error": "Store not found",
		})
	}

	productID, _ := strconv.ParseInt(c.Query("product_id", "0"), 10, 64)
	cur, err := repo.FilterImages(c.UserContext(), ident,
		c.Query("search"), productID, storetables.SortKey(c.Query("sort")))
	if err != nil {
		return c.Status(coreStatus(err)).JSON(fiber.Map{
			"error": "Failed to get images",
		})
	}
	images, err := cur.Collect()
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to get images",
		})
	}

	return c.JSON(fiber.Map{
		"images": images,
		"total":  len(images),
	})
}

// GetImage - GET /stores/:storeID/images/:id
func getImage(c *fiber.Ctx) error {
	_, ident, err := loadStore(c)
	if err != nil {
		return c.Status(coreStatus(err)).JSON(fiber.Map{
			"error": "Store not found",
		})
	}

	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid image id",
		})
	}

	image, err := repo.GetImage(c.UserContext(), ident, id)
	if err != nil {
		return c.Status(coreStatus(err)).JSON(fiber.Map{
			"error": "Image not found",
		})
	}

	return c.JSON(image)
}

// GetImageByCode - GET /stores/:storeID/images/code/:code
func getImageByCode(c *fiber.Ctx) error {
	_, ident, err := loadStore(c)
	if err != nil {
		return c.Status(coreStatus(err)).JSON(fiber.Map{
			"error": "Store not found",
		})
	}

	image, err := repo.FindImageByCode(c.UserContext(), ident, c.Params("code"))
	if err != nil {
		return c.Status(coreStatus(err)).JSON(fiber.Map{
			"error": "Image not found",
		})
	}

	return c.JSON(image)
}

// UpdateImage - PUT /stores/:storeID/images/:id
func updateImage(c *fiber.Ctx) error {
	_, ident, err := loadStore(c)
	if err != nil {
		return c.Status(coreStatus(err)).JSON(fiber.Map{
			"error": "Store not found",
		})
	}

	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid image id",
		})
	}

	req := new(imageUpdateRequest)
	if err := c.BodyParser(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Failed to parse request body",
		})
	}

	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Name and image_code fields are required",
		})
	}

	code := storetables.NormalizeCode(req.ImageCode)
	if err := repo.UpdateImage(c.UserContext(), ident, id, req.Name, code); err != nil {
		if errors.Is(err, storetables.ErrDuplicateCode) {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{
				"error": "Image code already exists in this store",
			})
		}
		return c.Status(coreStatus(err)).JSON(fiber.Map{
			"error": "Failed to update image",
		})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "Image updated successfully",
	})
}

// DeleteImage - DELETE /stores/:storeID/images/:id
func deleteImage(c *fiber.Ctx) error {
	_, ident, err := loadStore(c)
	if err != nil {
		return c.Status(coreStatus(err)).JSON(fiber.Map{
			"error": "Store not found",
		})
	}

	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid image id",
		})
	}

	if err := repo.DeleteImage(c.UserContext(), ident, id); err != nil {
		return c.Status(coreStatus(err)).JSON(fiber.Map{
			"error": "Failed to delete image",
		})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "Image deleted successfully",
	})
}

// Image upload handler - POST /stores/:storeID/upload
func uploadImage(c *fiber.Ctx) error {
	store, ident, err := loadStore(c)
	if err != nil {
		return c.Status(coreStatus(err)).JSON(fiber.Map{
			"error": "Store not found",
		})
	}

	productID, err := strconv.ParseInt(c.FormValue("product_id"), 10, 64)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid product_id",
		})
	}

	file, err := c.FormFile("image")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Failed to get uploaded file",
		})
	}

	// Generate unique filename
	ext := filepath.Ext(file.Filename)
	uniqueID := uuid.New().String()
	filename := uniqueID + ext
	storeDir := "store_" + string(ident)
	if err := os.MkdirAll(filepath.Join(uploadDir, storeDir), 0755); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to create upload directory",
		})
	}

	// Save the file
	if err := c.SaveFile(file, filepath.Join(uploadDir, storeDir, filename)); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to save file",
		})
	}

	name := c.FormValue("name")
	if name == "" {
		name = file.Filename
	}

	// An explicit code must be free; a generated one is suffixed until it
	// is.
	code := storetables.NormalizeCode(c.FormValue("image_code"))
	if code == "" {
		code, err = repo.UniqueCode(c.UserContext(), ident,
			storetables.GenerateImageCode(file.Filename))
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Failed to generate image code",
			})
		}
	}

	image := &models.Image{
		ProductID: productID,
		Name:      name,
		ImageCode: code,
		ImageFile: storeDir + "/" + filename,
		URL:       "/uploads/" + storeDir + "/" + filename,
	}

	if err := repo.CreateImage(c.UserContext(), ident, image); err != nil {
		if errors.Is(err, storetables.ErrDuplicateCode) {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{
				"error": "Image code already exists in this store",
			})
		}
		return c.Status(coreStatus(err)).JSON(fiber.Map{
			"error": "Failed to create image",
		})
	}

	notifyUpload(uploadEvent{
		StoreID:   store.ID,
		ImageID:   image.ID,
		ImageCode: image.ImageCode,
		URL:       image.URL,
	})

	return c.Status(fiber.StatusCreated).JSON(image)
}
