// SPDX-FileCopyrightText: 2021 Softbear, Inc.
// SPDX-License-Identifier: AGPL-3.0-or-later

package db

import (
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/dynamodb"
	"github.com/guregu/dynamo"
)

// DynamoDBDatabase is the live ban-list store, pared down to a single
// bans table.
type DynamoDBDatabase struct {
	svc       *dynamodb.DynamoDB
	db        *dynamo.DB
	bansTable dynamo.Table
}

func NewDynamoDBDatabase(session *session.Session, stage string) (*DynamoDBDatabase, error) {
	ddb := &DynamoDBDatabase{svc: dynamodb.New(session)}
	ddb.db = dynamo.NewFromIface(ddb.svc)
	ddb.bansTable = ddb.db.Table("kenshimp-" + stage + "-bans")
	return ddb, nil
}

func (ddb *DynamoDBDatabase) PutBan(ban Ban) error {
	return ddb.bansTable.Put(ban).Run()
}

func (ddb *DynamoDBDatabase) IsBanned(name string) (bool, error) {
	var ban Ban
	err := ddb.bansTable.Get("name", name).One(&ban)
	if err == dynamo.ErrNotFound {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (ddb *DynamoDBDatabase) DeleteBan(name string) error {
	return ddb.bansTable.Delete("name", name).Run()
}
