package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/jhoicas/BancoSangre-api/internal/application/inventory"
	"github.com/jhoicas/BancoSangre-api/internal/domain/entity"
	"github.com/jhoicas/BancoSangre-api/internal/domain/repository"
	"github.com/jhoicas/BancoSangre-api/internal/infrastructure/postgres"
	"github.com/jhoicas/BancoSangre-api/pkg/config"
	"github.com/jhoicas/BancoSangre-api/pkg/jwt"
)

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Migraciones de base de datos (goose, embebidas)",
	}

	withMigrator := func(fn func(ctx context.Context, m *postgres.Migrator) error) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			m, err := postgres.NewMigrator(cfg.DB.ConnectionString())
			if err != nil {
				return err
			}
			defer m.Close()
			return fn(cmd.Context(), m)
		}
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Aplica las migraciones pendientes",
		RunE: withMigrator(func(ctx context.Context, m *postgres.Migrator) error {
			n, err := m.Up(ctx)
			if err != nil {
				return fmt.Errorf("migración fallida: %w", err)
			}
			fmt.Printf("%d migración(es) aplicada(s).\n", n)
			return nil
		}),
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "down",
		Short: "Revierte la última migración",
		RunE: withMigrator(func(ctx context.Context, m *postgres.Migrator) error {
			if err := m.Down(ctx); err != nil {
				return err
			}
			fmt.Println("Última migración revertida.")
			return nil
		}),
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Muestra el estado de las migraciones",
		RunE: withMigrator(func(ctx context.Context, m *postgres.Migrator) error {
			states, err := m.Status(ctx)
			if err != nil {
				return err
			}
			fmt.Printf("%-10s %-40s %s\n", "VERSION", "ARCHIVO", "ESTADO")
			for _, s := range states {
				status := "pendiente"
				if s.Applied {
					status = "aplicada"
				}
				fmt.Printf("%-10d %-40s %s\n", s.Version, s.Path, status)
			}
			return nil
		}),
	})

	return cmd
}

func sweepCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Marca como vencidos los lotes cuya fecha de vencimiento ya pasó",
		RunE: func(cmd *cobra.Command, args []string) error {
			hospitalID, _ := cmd.Flags().GetString("hospital")
			group, _ := cmd.Flags().GetString("group")

			scope := repository.ExpiryScope{HospitalID: hospitalID}
			if group != "" {
				g, ok := entity.ParseBloodGroup(group)
				if !ok {
					return fmt.Errorf("grupo sanguíneo desconocido: %s", group)
				}
				scope.BloodGroup = g
			}

			cfg, err := config.Load()
			if err != nil {
				return err
			}
			log := newLogger(cfg)
			ctx := cmd.Context()
			pool, err := postgres.NewPool(ctx, cfg.DB)
			if err != nil {
				return err
			}
			defer pool.Close()

			sweeper := inventory.NewExpirySweeper(postgres.NewTxRunner(pool, cfg.Ledger.LockTimeout), log.Zerolog())
			n, err := sweeper.SweepScope(ctx, scope, time.Now())
			if err != nil {
				return err
			}
			fmt.Printf("%d lote(s) marcado(s) como vencido(s).\n", n)
			return nil
		},
	}
	cmd.Flags().String("hospital", "", "Limitar a un hospital")
	cmd.Flags().String("group", "", "Limitar a un grupo sanguíneo (A+, O-, ...)")
	return cmd
}

func tokenCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Emite un JWT para un actor del directorio (entornos de prueba)",
		RunE: func(cmd *cobra.Command, args []string) error {
			actorID, _ := cmd.Flags().GetString("actor")
			if actorID == "" {
				return fmt.Errorf("--actor es requerido")
			}
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			pool, err := postgres.NewPool(ctx, cfg.DB)
			if err != nil {
				return err
			}
			defer pool.Close()

			actor, err := postgres.NewDirectory(pool).ResolveActor(ctx, actorID)
			if err != nil {
				return err
			}
			tok, err := jwt.Generate(cfg.JWT.Secret, actor.ID, actor.HospitalID, actor.Role, cfg.JWT.Issuer, cfg.JWT.Expiration)
			if err != nil {
				return err
			}
			fmt.Println(tok)
			return nil
		},
	}
	cmd.Flags().String("actor", "", "ID del actor")
	return cmd
}

func directoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "directory",
		Short: "Alta de hospitales y actores en el directorio",
	}

	withDirectory := func(fn func(ctx context.Context, d *postgres.Directory) error) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			pool, err := postgres.NewPool(ctx, cfg.DB)
			if err != nil {
				return err
			}
			defer pool.Close()
			return fn(ctx, postgres.NewDirectory(pool))
		}
	}

	hospitalCmd := &cobra.Command{
		Use:   "hospital",
		Short: "Crea o actualiza un hospital",
	}
	hospitalID := hospitalCmd.Flags().String("id", "", "ID del hospital")
	hospitalName := hospitalCmd.Flags().String("name", "", "Nombre")
	approved := hospitalCmd.Flags().Bool("approved", true, "Hospital aprobado para operar")
	hospitalCmd.RunE = withDirectory(func(ctx context.Context, d *postgres.Directory) error {
		if *hospitalID == "" || *hospitalName == "" {
			return fmt.Errorf("--id y --name son requeridos")
		}
		return d.UpsertHospital(ctx, entity.HospitalRef{ID: *hospitalID, Name: *hospitalName, Exists: true, Approved: *approved})
	})

	actorCmd := &cobra.Command{
		Use:   "actor",
		Short: "Crea o actualiza un actor",
	}
	actorID := actorCmd.Flags().String("id", "", "ID del actor")
	role := actorCmd.Flags().String("role", "", "admin | hospital | patient | donor")
	actorHospital := actorCmd.Flags().String("hospital", "", "Hospital (rol hospital)")
	patientID := actorCmd.Flags().String("patient", "", "Paciente (rol patient)")
	actorCmd.RunE = withDirectory(func(ctx context.Context, d *postgres.Directory) error {
		if *actorID == "" {
			return fmt.Errorf("--id es requerido")
		}
		switch *role {
		case entity.RoleAdmin, entity.RoleHospital, entity.RolePatient, entity.RoleDonor:
		default:
			return fmt.Errorf("rol desconocido: %q", *role)
		}
		return d.UpsertActor(ctx, entity.Actor{ID: *actorID, Role: *role, HospitalID: *actorHospital, PatientID: *patientID})
	})

	cmd.AddCommand(hospitalCmd, actorCmd)
	return cmd
}
