package main

import (
	"context"
	"flag"
	"log"

	"github.com/joho/godotenv"

	"github.com/MainDotCpp/BlueUnion/internal/config"
	"github.com/MainDotCpp/BlueUnion/internal/datamodels/user"
	"github.com/MainDotCpp/BlueUnion/internal/repository/mysql"
	"github.com/MainDotCpp/BlueUnion/internal/service"
)

// 初始化后台管理员账号，已存在时直接退出
func main() {
	username := flag.String("username", "admin", "管理员用户名")
	password := flag.String("password", "admin123", "初始密码")
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := config.Load("./config")
	if err != nil {
		log.Fatalf("load config failed: %v", err)
	}

	db := mysql.Init(&cfg.MySQL)
	userRepo := mysql.NewUserRepository(db)
	userSvc := service.NewUserService(userRepo, &cfg.JWT)

	ctx := context.Background()
	if _, err := userRepo.GetByUsername(ctx, *username); err == nil {
		log.Printf("admin %q already exists, nothing to do", *username)
		return
	}

	u, err := userSvc.Create(ctx, *username, *password, user.RoleAdmin)
	if err != nil {
		log.Fatalf("create admin failed: %v", err)
	}
	log.Printf("admin %q created (id=%d), please change the password after first login", u.Username, u.ID)
}
