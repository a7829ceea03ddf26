package funcs

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/ardnew/atexpr/lang"
)

var namespaces = map[string]uuid.UUID{
	"dns":  uuid.NameSpaceDNS,
	"url":  uuid.NameSpaceURL,
	"oid":  uuid.NameSpaceOID,
	"x500": uuid.NameSpaceX500,
}

// namespace resolves a well-known namespace name or a UUID string.
func namespace(s string) (uuid.UUID, error) {
	if ns, ok := namespaces[strings.ToLower(s)]; ok {
		return ns, nil
	}

	ns, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, ErrArgument.Detail("namespace " + s).Wrap(err)
	}

	return ns, nil
}

func generator(name, usage string, gen func() (uuid.UUID, error)) *lang.Func {
	return &lang.Func{
		Name:  name,
		Usage: usage,
		Call: func(context.Context, []any) (any, error) {
			u, err := gen()
			if err != nil {
				return nil, err
			}

			return u.String(), nil
		},
	}
}

func hashed(name string, gen func(uuid.UUID, []byte) uuid.UUID) *lang.Func {
	return &lang.Func{
		Name:  name,
		Usage: strings.ToUpper(name) + "(name, namespace) with namespace dns, url, oid, x500, or a UUID",
		Call: func(_ context.Context, args []any) (any, error) {
			if err := requireArgs(name, args, 2); err != nil {
				return nil, err
			}

			ns, err := namespace(text(args, 1))
			if err != nil {
				return nil, err
			}

			return gen(ns, []byte(text(args, 0))).String(), nil
		},
	}
}

func uuidFuncs(*config) []*lang.Func {
	return []*lang.Func{
		generator("uuid", "UUID() returns a random (version 4) UUID", uuid.NewRandom),
		generator("uuidv1", "UUIDV1()", uuid.NewUUID),
		generator("uuidv4", "UUIDV4()", uuid.NewRandom),
		generator("uuidv6", "UUIDV6()", uuid.NewV6),
		generator("uuidv7", "UUIDV7()", uuid.NewV7),
		hashed("uuidv3", uuid.NewMD5),
		hashed("uuidv5", uuid.NewSHA1),
		{
			Name:  "uuidnil",
			Usage: "UUIDNIL()",
			Call: func(context.Context, []any) (any, error) {
				return uuid.Nil.String(), nil
			},
		},
		{
			Name:  "uuidvalidate",
			Usage: "UUIDVALIDATE(s)",
			Call: func(_ context.Context, args []any) (any, error) {
				return uuid.Validate(text(args, 0)) == nil, nil
			},
		},
		{
			Name:  "uuidversion",
			Usage: "UUIDVERSION(s)",
			Call: func(_ context.Context, args []any) (any, error) {
				u, err := uuid.Parse(text(args, 0))
				if err != nil {
					return nil, ErrArgument.Wrap(err)
				}

				return int64(u.Version()), nil
			},
		},
	}
}
