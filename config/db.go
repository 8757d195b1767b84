package config

import (
	"fmt"
	"log"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/mehdiasadli/yayago-application-sub000/models"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var DB *gorm.DB

func mysqlDSNFromURL(raw string) (string, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", err
	}

	user := u.User.Username()
	pass, _ := u.User.Password()
	host := u.Hostname()
	port := u.Port()
	if port == "" {
		port = "3306"
	}

	dbName := strings.TrimPrefix(u.Path, "/")
	if dbName == "" {
		return "", fmt.Errorf("mysql url missing database name")
	}

	q := u.Query()
	if q.Get("charset") == "" {
		q.Set("charset", "utf8mb4")
	}
	if q.Get("parseTime") == "" {
		q.Set("parseTime", "True")
	}
	if q.Get("loc") == "" {
		q.Set("loc", "Local")
	}

	return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?%s", user, pass, host, port, dbName, q.Encode()), nil
}

func resolveMySQLDSN() (string, error) {
	raw := strings.TrimSpace(os.Getenv("MYSQL_URL"))
	if raw == "" {
		raw = strings.TrimSpace(os.Getenv("DATABASE_URL"))
	}

	if raw != "" {
		if strings.HasPrefix(raw, "mysql://") {
			return mysqlDSNFromURL(raw)
		}
		return raw, nil
	}

	user := EnvOrDefault("DB_USER", "root")
	pass := EnvOrDefault("DB_PASS", "")
	host := EnvOrDefault("DB_HOST", "127.0.0.1")
	port := EnvOrDefault("DB_PORT", "3306")
	dbName := EnvOrDefault("DB_NAME", "yayago_db")

	return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		user, pass, host, port, dbName,
	), nil
}

func ConnectDatabase() error {
	dsn, err := resolveMySQLDSN()
	if err != nil {
		return err
	}

	newLogger := logger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		logger.Config{
			SlowThreshold: time.Second,
			LogLevel:      logger.Warn,
			Colorful:      true,
		},
	)

	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{Logger: newLogger})
	if err != nil {
		return err
	}

	DB = db

	// AutoMigrate in parent->child order
	if err := DB.AutoMigrate(
		&models.Country{},
		&models.User{},
		&models.Organization{},
		&models.OrganizationMember{},
		&models.Listing{},
		&models.Addon{},
		&models.Booking{},
		&models.BookingAddon{},
		&models.Notification{},
	); err != nil {
		return err
	}

	SeedDatabase()
	return nil
}

// SeedDatabase fills in reference data on an empty database: operating
// countries with their commission rates and a default platform admin.
func SeedDatabase() {
	// ---------------- Countries ----------------
	var countryCount int64
	DB.Model(&models.Country{}).Count(&countryCount)
	if countryCount == 0 {
		countries := []models.Country{
			{Code: "AE", Name: "United Arab Emirates", Currency: "AED", PlatformCommissionRate: 0.05},
			{Code: "SA", Name: "Saudi Arabia", Currency: "SAR", PlatformCommissionRate: 0.05},
			{Code: "QA", Name: "Qatar", Currency: "QAR", PlatformCommissionRate: 0.05},
			{Code: "KW", Name: "Kuwait", Currency: "KWD", PlatformCommissionRate: 0.05},
			{Code: "BH", Name: "Bahrain", Currency: "BHD", PlatformCommissionRate: 0.05},
			{Code: "OM", Name: "Oman", Currency: "OMR", PlatformCommissionRate: 0.05},
			{Code: "AZ", Name: "Azerbaijan", Currency: "AZN", PlatformCommissionRate: 0.07},
		}
		if err := DB.Create(&countries).Error; err != nil {
			log.Printf("warning: failed to seed countries: %v", err)
		} else {
			log.Println("Countries seeded")
		}
	}

	// ---------------- Admin user ----------------
	var adminCount int64
	DB.Model(&models.User{}).Where("is_admin = ?", true).Count(&adminCount)
	if adminCount == 0 {
		hash, err := bcrypt.GenerateFromPassword([]byte(EnvOrDefault("ADMIN_SEED_PASSWORD", "admin123")), bcrypt.DefaultCost)
		if err != nil {
			log.Printf("warning: failed to hash default admin password: %v", err)
		} else {
			admin := models.User{
				FullName: "Platform Admin",
				Email:    "admin@yayago.local",
				Password: string(hash),
				IsAdmin:  true,
			}
			if err := DB.Create(&admin).Error; err != nil {
				log.Printf("warning: failed to create default admin: %v", err)
			} else {
				log.Println("Default admin seeded")
			}
		}
	}
}
